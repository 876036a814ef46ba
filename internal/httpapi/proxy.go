package httpapi

import (
	"io"
	"net/http"
	"strings"

	"koperasihub/internal/backend"
	"koperasihub/internal/session"
)

// proxiedResources are forwarded to the backend under the same path.
var proxiedResources = []string{"products", "categories", "warehouses", "orders", "users", "stores"}

// Catalog reads are public so storefronts render for anonymous visitors.
var publicReads = map[string]bool{
	"products":   true,
	"categories": true,
	"stores":     true,
}

func (h *Handler) handleProxy(w http.ResponseWriter, r *http.Request) {
	upstreamPath := strings.TrimPrefix(r.URL.Path, "/api")
	token := requestToken(r)
	if token == "" && !isPublicRead(r.Method, upstreamPath) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	resp, err := h.backend.Forward(r.Context(), backend.ForwardRequest{
		Method: r.Method,
		Path:   upstreamPath,
		Query:  r.URL.RawQuery,
		Header: r.Header,
		Body:   r.Body,
		Token:  token,
	})
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && currentSession(r).Authenticated() {
		session.Teardown(w, h.secure)
	}
	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.WarnContext(r.Context(), "copy upstream body", "path", r.URL.Path, "error", err)
	}
}

func isPublicRead(method, upstreamPath string) bool {
	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	resource := strings.TrimPrefix(upstreamPath, "/")
	if i := strings.Index(resource, "/"); i >= 0 {
		resource = resource[:i]
	}
	return publicReads[resource]
}

// copyResponseHeaders drops hop-by-hop headers and upstream cookies; the
// gateway is the only issuer of cookies on its own domain.
func copyResponseHeaders(dst, src http.Header) {
	for key, values := range src {
		if backend.IsHopByHopHeader(key) || http.CanonicalHeaderKey(key) == "Set-Cookie" {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
