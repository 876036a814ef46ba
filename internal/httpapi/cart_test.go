package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"koperasihub/internal/cart"
	"koperasihub/internal/store/memory"

	"github.com/shopspring/decimal"
)

type cartClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (c *cartClient) do(method, path, body string) (*httptest.ResponseRecorder, cart.Snapshot) {
	c.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	resp := httptest.NewRecorder()
	c.handler.ServeHTTP(resp, req)
	if cookie, ok := responseCookies(resp)[cartCookie]; ok {
		c.cookie = cookie
	}
	var snap cart.Snapshot
	if resp.Code == http.StatusOK {
		if err := json.Unmarshal(resp.Body.Bytes(), &snap); err != nil {
			c.t.Fatalf("decode snapshot %q: %v", resp.Body.String(), err)
		}
	}
	return resp, snap
}

func TestCartFlow(t *testing.T) {
	storage := memory.NewStore()
	handler := NewHandler(Options{Backend: fakeBackend{}, Carts: cart.NewService(storage, nil)}).Routes()
	client := &cartClient{t: t, handler: handler}

	_, snap := client.do(http.MethodPost, "/api/cart/items", `{"id":"p1","name":"Beras 5kg","price":"50000","quantity":2}`)
	if client.cookie == nil {
		t.Fatalf("expected a cart cookie to be issued")
	}
	if snap.TotalCount != 2 {
		t.Fatalf("expected 2 items, got %d", snap.TotalCount)
	}

	_, snap = client.do(http.MethodPost, "/api/cart/items", `{"id":"p1","name":"Beras 5kg","price":"50000","quantity":1}`)
	_, snap = client.do(http.MethodPost, "/api/cart/items", `{"id":"p2","name":"Minyak 1L","price":100000}`)
	if len(snap.Items) != 2 || snap.TotalCount != 4 {
		t.Fatalf("expected merged lines, got %+v", snap)
	}
	if !snap.TotalPrice.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("expected total 250000, got %s", snap.TotalPrice)
	}

	_, snap = client.do(http.MethodPatch, "/api/cart/items/p1", `{"quantity":0}`)
	if snap.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity clamped to 1, got %d", snap.Items[0].Quantity)
	}

	_, snap = client.do(http.MethodDelete, "/api/cart/items/p2", "")
	if len(snap.Items) != 1 || snap.Items[0].ID != "p1" {
		t.Fatalf("expected only p1 left, got %+v", snap.Items)
	}

	_, snap = client.do(http.MethodGet, "/api/cart", "")
	if snap.TotalCount != 1 {
		t.Fatalf("expected persisted cart, got %+v", snap)
	}

	_, snap = client.do(http.MethodDelete, "/api/cart", "")
	if len(snap.Items) != 0 || !snap.TotalPrice.IsZero() {
		t.Fatalf("expected empty cart, got %+v", snap)
	}
	if storage.Has(client.cookie.Value) {
		t.Fatalf("expected clear to remove the persisted record")
	}
}

func TestCartValidation(t *testing.T) {
	handler := newTestHandler(fakeBackend{})
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing id", http.MethodPost, "/api/cart/items", `{"name":"x","price":1}`, http.StatusBadRequest},
		{"negative price", http.MethodPost, "/api/cart/items", `{"id":"a","name":"x","price":-1}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/cart/items", `{"id":"a","name":"x","price":1,"sku":"s"}`, http.StatusBadRequest},
		{"missing quantity", http.MethodPatch, "/api/cart/items/a", `{}`, http.StatusBadRequest},
		{"nested id", http.MethodDelete, "/api/cart/items/a/b", "", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/api/cart", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestCartCookieIsReusedAndIndependentOfSession(t *testing.T) {
	handler := newTestHandler(fakeBackend{})
	client := &cartClient{t: t, handler: handler}
	client.do(http.MethodPost, "/api/cart/items", `{"id":"p1","name":"Gula","price":15000}`)
	first := client.cookie.Value

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(client.cookie)
	for _, c := range sessionCookies("tok", "reseller", "1") {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if _, reissued := responseCookies(resp)[cartCookie]; reissued {
		t.Fatalf("valid cart cookie must not be reissued")
	}
	var snap cart.Snapshot
	_ = json.Unmarshal(resp.Body.Bytes(), &snap)
	if snap.TotalCount != 1 {
		t.Fatalf("expected cart %s to carry over, got %+v", first, snap)
	}
}
