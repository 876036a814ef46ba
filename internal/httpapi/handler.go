package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"koperasihub/internal/backend"
	"koperasihub/internal/cart"
	"koperasihub/internal/models"
	"koperasihub/internal/store/memory"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend is the subset of the external API the handlers use.
type Backend interface {
	Login(ctx context.Context, email, password string) (backend.AuthResult, error)
	Register(ctx context.Context, input backend.RegisterInput) (backend.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (models.User, error)
	Storefront(ctx context.Context, slug string) (backend.Storefront, error)
	Forward(ctx context.Context, fr backend.ForwardRequest) (*http.Response, error)
}

type Options struct {
	Backend       Backend
	Carts         *cart.Service
	Metrics       *Metrics
	Logger        *slog.Logger
	SecureCookies bool
}

type Handler struct {
	backend Backend
	carts   *cart.Service
	metrics *Metrics
	logger  *slog.Logger
	secure  bool
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	carts := opts.Carts
	if carts == nil {
		carts = cart.NewService(memory.NewStore(), logger)
	}
	return &Handler{
		backend: opts.Backend,
		carts:   carts,
		metrics: metrics,
		logger:  logger,
		secure:  opts.SecureCookies,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/register", h.handleRegister)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/me", h.handleMe)

	for _, resource := range proxiedResources {
		mux.HandleFunc("/api/"+resource, h.handleProxy)
		mux.HandleFunc("/api/"+resource+"/", h.handleProxy)
	}

	mux.Handle("/api/cart", h.withState(http.HandlerFunc(h.handleCart)))
	mux.Handle("/api/cart/items", h.withState(http.HandlerFunc(h.handleCartItems)))
	mux.Handle("/api/cart/items/", h.withState(http.HandlerFunc(h.handleCartItem)))

	mux.HandleFunc("/login", h.handleLoginPage)
	mux.HandleFunc("/register", h.handleRegisterPage)
	mux.Handle("/logout", h.withState(http.HandlerFunc(h.handleLogoutPage)))
	mux.Handle(models.DashboardRoot+"/", h.withState(http.HandlerFunc(h.handleDashboard)))
	mux.HandleFunc("/store/", h.handleStorefront)
	mux.HandleFunc("/", h.handleHome)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeBackendError maps a backend failure onto the response. Backend errors
// keep their status; transport failures become 502.
func (h *Handler) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.Error
	switch {
	case errors.As(err, &apiErr):
		writeError(w, apiErr.Status, apiErr.Code, apiErr.Message)
	case errors.Is(err, backend.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "bad_gateway", "backend unavailable")
	default:
		h.logger.ErrorContext(r.Context(), "backend call failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeRequest(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
