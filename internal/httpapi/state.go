package httpapi

import (
	"net/http"

	"koperasihub/internal/appstate"

	"github.com/google/uuid"
)

const (
	cartCookie       = "cart_id"
	cartCookieMaxAge = 30 * 24 * 60 * 60
)

// withState builds the application state for this request and injects it
// into the context. The cart belongs to the visitor, not the session, so it
// survives login and logout.
func (h *Handler) withState(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := appstate.State{
			Cart: h.carts.Handle(h.cartKey(w, r)),
			Auth: h.newAuthStore(w, r),
		}
		next.ServeHTTP(w, r.WithContext(appstate.WithState(r.Context(), state)))
	})
}

// cartKey returns the visitor's cart id, issuing a new one when the cookie is
// missing or not a UUID.
func (h *Handler) cartKey(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(cartCookie); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}
	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    key,
		Path:     "/",
		MaxAge:   cartCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}
