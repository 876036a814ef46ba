package session

import (
	"context"
	"net/http"
	"strings"

	"koperasihub/internal/models"
)

const (
	TokenCookie  = "access_token"
	RoleCookie   = "role"
	UserIDCookie = "user_id"

	MaxAgeSeconds = 24 * 60 * 60
)

var cookieNames = []string{TokenCookie, RoleCookie, UserIDCookie}

// Establish sets the session cookie triple. All three share the same expiry.
func Establish(w http.ResponseWriter, token, role, userID string, secure bool) {
	values := map[string]string{
		TokenCookie:  token,
		RoleCookie:   role,
		UserIDCookie: userID,
	}
	for _, name := range cookieNames {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    values[name],
			Path:     "/",
			MaxAge:   MaxAgeSeconds,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Teardown deletes the session cookies whether or not they were set.
func Teardown(w http.ResponseWriter, secure bool) {
	for _, name := range cookieNames {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// FromRequest reads the session cookies. Missing or empty cookies yield an
// unauthenticated session, never an error.
func FromRequest(r *http.Request) models.Session {
	sess := models.Session{
		Token:   cookieValue(r, TokenCookie),
		RoleRaw: cookieValue(r, RoleCookie),
		UserID:  cookieValue(r, UserIDCookie),
	}
	if role, ok := models.ParseRole(sess.RoleRaw); ok {
		sess.Role = role
	}
	return sess
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

type contextKey struct{}

// Middleware extracts the session once at the request boundary.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithSession(r.Context(), FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithSession(ctx context.Context, sess models.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

func FromContext(ctx context.Context) models.Session {
	value := ctx.Value(contextKey{})
	if value == nil {
		return models.Session{}
	}
	sess, ok := value.(models.Session)
	if !ok {
		return models.Session{}
	}
	return sess
}
