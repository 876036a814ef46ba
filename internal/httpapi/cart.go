package httpapi

import (
	"net/http"
	"strings"

	"koperasihub/internal/appstate"
	"koperasihub/internal/models"
)

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) handleCart(w http.ResponseWriter, r *http.Request) {
	state, ok := stateFromRequest(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, state.Cart.Snapshot(r.Context()))
	case http.MethodDelete:
		h.metrics.CartMutations.WithLabelValues("clear").Inc()
		writeJSON(w, http.StatusOK, state.Cart.ClearCart(r.Context()))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	state, ok := stateFromRequest(w, r)
	if !ok {
		return
	}

	var item models.CartItem
	if err := decodeRequest(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	item.ID = strings.TrimSpace(item.ID)
	item.Name = strings.TrimSpace(item.Name)
	if item.ID == "" || item.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id and name are required")
		return
	}
	if item.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid_request", "price must not be negative")
		return
	}

	h.metrics.CartMutations.WithLabelValues("add").Inc()
	writeJSON(w, http.StatusOK, state.Cart.AddItem(r.Context(), item))
}

func (h *Handler) handleCartItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/cart/items/"))
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", "cart item not found")
		return
	}
	state, ok := stateFromRequest(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPatch, http.MethodPut:
		var req updateQuantityRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
			return
		}
		if req.Quantity == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "quantity is required")
			return
		}
		h.metrics.CartMutations.WithLabelValues("update").Inc()
		writeJSON(w, http.StatusOK, state.Cart.UpdateQuantity(r.Context(), id, *req.Quantity))
	case http.MethodDelete:
		h.metrics.CartMutations.WithLabelValues("remove").Inc()
		writeJSON(w, http.StatusOK, state.Cart.RemoveItem(r.Context(), id))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func stateFromRequest(w http.ResponseWriter, r *http.Request) (appstate.State, bool) {
	state, ok := appstate.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "missing application state")
		return appstate.State{}, false
	}
	return state, true
}
