package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"koperasihub/internal/models"
)

func TestEstablishSetsAllCookies(t *testing.T) {
	resp := httptest.NewRecorder()
	Establish(resp, "tok-1", "vendor", "user-1", true)

	cookies := resp.Result().Cookies()
	if len(cookies) != 3 {
		t.Fatalf("expected 3 cookies, got %d", len(cookies))
	}
	want := map[string]string{TokenCookie: "tok-1", RoleCookie: "vendor", UserIDCookie: "user-1"}
	for _, c := range cookies {
		if want[c.Name] != c.Value {
			t.Fatalf("cookie %s: expected %q, got %q", c.Name, want[c.Name], c.Value)
		}
		if !c.HttpOnly || !c.Secure || c.Path != "/" || c.MaxAge != MaxAgeSeconds || c.SameSite != http.SameSiteLaxMode {
			t.Fatalf("cookie %s has wrong attributes: %+v", c.Name, c)
		}
	}
}

func TestEstablishNotSecureOutsideProduction(t *testing.T) {
	resp := httptest.NewRecorder()
	Establish(resp, "tok-1", "vendor", "user-1", false)
	for _, c := range resp.Result().Cookies() {
		if c.Secure {
			t.Fatalf("cookie %s should not be secure", c.Name)
		}
	}
}

func TestTeardownDeletesAllCookies(t *testing.T) {
	resp := httptest.NewRecorder()
	Teardown(resp, false)

	cookies := resp.Result().Cookies()
	if len(cookies) != 3 {
		t.Fatalf("expected 3 cookies, got %d", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge >= 0 || c.Value != "" {
			t.Fatalf("cookie %s was not deleted: %+v", c.Name, c)
		}
	}
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		cookies  map[string]string
		authed   bool
		hasRole  bool
		wantRole models.Role
	}{
		{"no cookies", nil, false, false, models.RoleNone},
		{"token and role", map[string]string{TokenCookie: "t", RoleCookie: "affiliator"}, true, true, models.RoleAffiliator},
		{"token without role", map[string]string{TokenCookie: "t"}, true, false, models.RoleNone},
		{"unknown role", map[string]string{TokenCookie: "t", RoleCookie: "Vendor"}, true, false, models.RoleNone},
		{"role without token", map[string]string{RoleCookie: "vendor"}, false, false, models.RoleVendor},
		{"blank token", map[string]string{TokenCookie: "  ", RoleCookie: "vendor"}, false, false, models.RoleVendor},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for name, value := range tc.cookies {
				req.AddCookie(&http.Cookie{Name: name, Value: value})
			}
			sess := FromRequest(req)
			if sess.Authenticated() != tc.authed {
				t.Fatalf("expected authenticated=%v", tc.authed)
			}
			if sess.HasRole() != tc.hasRole {
				t.Fatalf("expected hasRole=%v", tc.hasRole)
			}
			if sess.Role != tc.wantRole {
				t.Fatalf("expected role %v, got %v", tc.wantRole, sess.Role)
			}
		})
	}
}

func TestMiddlewareStoresSession(t *testing.T) {
	var got models.Session
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard/vendor", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: RoleCookie, Value: "vendor"})
	req.AddCookie(&http.Cookie{Name: UserIDCookie, Value: "u-9"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.Token != "tok" || got.Role != models.RoleVendor || got.UserID != "u-9" {
		t.Fatalf("unexpected session %+v", got)
	}
	if FromContext(context.Background()).Authenticated() {
		t.Fatalf("empty context must be unauthenticated")
	}
}
