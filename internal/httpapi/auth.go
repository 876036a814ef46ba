package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"koperasihub/internal/authstate"
	"koperasihub/internal/backend"
	"koperasihub/internal/gate"
	"koperasihub/internal/models"
	"koperasihub/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	CaptchaToken string `json:"captcha_token"`
}

type authResponse struct {
	User     models.User `json:"user"`
	Redirect string      `json:"redirect"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	result, err := h.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.establish(w, result))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	input, msg := registerInput(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	result, err := h.backend.Register(r.Context(), input)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.establish(w, result))
}

// registerInput validates a registration. Super admins are provisioned by
// the backend, never through self-registration.
func registerInput(req registerRequest) (backend.RegisterInput, string) {
	input := backend.RegisterInput{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Password:     req.Password,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         strings.TrimSpace(req.Role),
		CaptchaToken: strings.TrimSpace(req.CaptchaToken),
	}
	if input.Name == "" || input.Email == "" || input.Password == "" || input.Role == "" {
		return input, "name, email, password, and role are required"
	}
	role, ok := models.ParseRole(input.Role)
	if !ok || role == models.RoleSuperAdmin {
		return input, "role is not allowed"
	}
	return input, ""
}

// establish writes the session cookies for a successful login or
// registration and returns where the client should go next.
func (h *Handler) establish(w http.ResponseWriter, result backend.AuthResult) authResponse {
	session.Establish(w, result.Token, result.User.Role, result.User.ID, h.secure)
	redirect := result.User.ParsedRole().DashboardPath()
	if redirect == "" {
		redirect = gate.DefaultPath
	}
	return authResponse{User: result.User, Redirect: redirect}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.endSession(w, r)
	writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// endSession deletes the cookies unconditionally and tells the backend on a
// best-effort basis.
func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) error {
	session.Teardown(w, h.secure)
	token := requestToken(r)
	if token == "" {
		return nil
	}
	if err := h.backend.Logout(r.Context(), token); err != nil {
		h.logger.WarnContext(r.Context(), "backend logout failed", "error", err)
		return err
	}
	return nil
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	token := requestToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	user, err := h.backend.Me(r.Context(), token)
	if err != nil {
		var apiErr *backend.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			session.Teardown(w, h.secure)
		}
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, Redirect: user.ParsedRole().DashboardPath()})
}

func (h *Handler) handleLogoutPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	state, ok := stateFromRequest(w, r)
	if !ok {
		return
	}
	state.Auth.Logout(r.Context())
}

// requestToken prefers the session cookie and falls back to a bearer header
// for API clients that do not hold cookies.
func requestToken(r *http.Request) string {
	if sess := currentSession(r); sess.Authenticated() {
		return sess.Token
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func currentSession(r *http.Request) models.Session {
	if sess := session.FromContext(r.Context()); sess.Authenticated() {
		return sess
	}
	return session.FromRequest(r)
}

// newAuthStore builds the per-request auth store. Its navigation is a 303 so
// the browser follows with a GET.
func (h *Handler) newAuthStore(w http.ResponseWriter, r *http.Request) *authstate.Store {
	store := authstate.New(
		authstate.EndSessionFunc(func(ctx context.Context) error {
			return h.endSession(w, r.WithContext(ctx))
		}),
		authstate.NavigateFunc(func(path string) {
			http.Redirect(w, r, path, http.StatusSeeOther)
		}),
		h.logger,
	)
	if sess := currentSession(r); sess.Authenticated() {
		store.SetUser(models.User{ID: sess.UserID, Role: sess.RoleRaw})
	}
	return store
}
