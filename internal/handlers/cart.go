package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saltline-charters/api/internal/platform/httpx"
	"github.com/saltline-charters/api/internal/repositories"
	"github.com/saltline-charters/api/internal/services"
)

const maxCartBodySize = 32 * 1024

// CartHandlers exposes the session cart endpoints.
type CartHandlers struct {
	carts   services.CartService
	catalog services.CatalogService
}

// CartHandlersDeps bundles collaborators for the cart endpoints.
type CartHandlersDeps struct {
	Carts   services.CartService
	Catalog services.CatalogService
}

// NewCartHandlers constructs the cart handlers.
func NewCartHandlers(deps CartHandlersDeps) *CartHandlers {
	return &CartHandlers{
		carts:   deps.Carts,
		catalog: deps.Catalog,
	}
}

// Routes registers the cart endpoints. Every route is keyed by the
// X-Session-Id header; there is no account identity on this surface.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Put("/", h.reconcileCart)
	r.Delete("/", h.clearCart)
	r.Put("/lines/{identity}", h.setLineQuantity)
	r.Delete("/lines/{identity}", h.removeLine)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) reconcileCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w, r)
	if !ok {
		return
	}
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyReadError(ctx, w, err)
		return
	}

	var req reconcileCartRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	slug := strings.TrimSpace(req.OfferingSlug)
	if slug == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "offering_slug is required", http.StatusBadRequest))
		return
	}

	offering, err := h.catalog.GetOffering(ctx, slug)
	if err != nil {
		writeOfferingError(ctx, w, err)
		return
	}

	selection, err := buildSelectionState(offering, req.Selection)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cart, err := h.carts.Reconcile(ctx, services.ReconcileCartCommand{
		SessionID: sessionID,
		Offering:  offering,
		Selection: selection,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w, r)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(ctx, sessionID); err != nil {
		writeCartError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) setLineQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w, r)
	if !ok {
		return
	}

	identity := strings.TrimSpace(chi.URLParam(r, "identity"))
	if identity == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "line identity is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyReadError(ctx, w, err)
		return
	}

	var req setLineQuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.SetLineQuantity(ctx, services.SetCartLineQuantityCommand{
		SessionID: sessionID,
		Identity:  identity,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w, r)
	if !ok {
		return
	}

	identity := strings.TrimSpace(chi.URLParam(r, "identity"))
	if identity == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "line identity is required", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.RemoveLine(ctx, services.RemoveCartLineCommand{
		SessionID: sessionID,
		Identity:  identity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) requireSession(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "X-Session-Id header is required", http.StatusBadRequest))
		return "", false
	}
	return sessionID, true
}

type reconcileCartRequest struct {
	OfferingSlug string           `json:"offering_slug"`
	Selection    selectionRequest `json:"selection"`
}

type setLineQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartConciergeRequired):
		httpx.WriteError(ctx, w, httpx.NewError("concierge_required", "large group bookings are arranged through the concierge", http.StatusConflict))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartLineNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_line_not_found", "cart line not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_not_found", "cart not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart temporarily unavailable", http.StatusServiceUnavailable))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart repository unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to process cart request", http.StatusInternalServerError))
	}
}
