package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saltline-charters/api/internal/platform/httpx"
	"github.com/saltline-charters/api/internal/services"
)

const maxBookingBodySize = 32 * 1024

// BookingHandlers exposes the inline checkout gate.
type BookingHandlers struct {
	bookings services.BookingService
	catalog  services.CatalogService
}

// BookingHandlersDeps bundles collaborators for the booking endpoints.
type BookingHandlersDeps struct {
	Bookings services.BookingService
	Catalog  services.CatalogService
}

// NewBookingHandlers constructs the booking handlers.
func NewBookingHandlers(deps BookingHandlersDeps) *BookingHandlers {
	return &BookingHandlers{
		bookings: deps.Bookings,
		catalog:  deps.Catalog,
	}
}

// Routes registers the booking endpoints.
func (h *BookingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/attempt", h.attemptCheckout)
}

// attemptCheckout gates a selection before checkout. A large-group hand-off
// is a successful response with a concierge outcome, never an error status.
func (h *BookingHandlers) attemptCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bookings == nil || h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("booking_unavailable", "booking service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "X-Session-Id header is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxBookingBodySize)
	if err != nil {
		writeBodyReadError(ctx, w, err)
		return
	}

	var req checkoutAttemptRequest
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

	result, err := h.bookings.AttemptInlineCheckout(ctx, services.CheckoutAttemptCommand{
		SessionID: sessionID,
		Offering:  offering,
		Selection: selection,
	})
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCheckoutAttemptResponse(result))
}

type checkoutAttemptRequest struct {
	OfferingSlug string           `json:"offering_slug"`
	Selection    selectionRequest `json:"selection"`
}

type checkoutAttemptResponse struct {
	Outcome    string                `json:"outcome"`
	GateReason string                `json:"gate_reason,omitempty"`
	Cart       *cartPayload          `json:"cart,omitempty"`
	Breakdown  priceBreakdownPayload `json:"breakdown"`
	Pace       paceEstimatePayload   `json:"pace"`
}

func buildCheckoutAttemptResponse(result services.CheckoutAttemptResult) checkoutAttemptResponse {
	resp := checkoutAttemptResponse{
		Outcome:    string(result.Outcome),
		GateReason: string(result.GateReason),
		Breakdown:  buildPriceBreakdownPayload(result.Breakdown),
		Pace:       buildPaceEstimatePayload(result.Pace),
	}
	if result.Outcome == services.CheckoutOutcomeAccepted {
		cart := buildCartPayload(result.Cart)
		resp.Cart = &cart
	}
	return resp
}

func writeBookingError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrBookingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBookingUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("booking_unavailable", "booking temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("booking_error", "failed to process booking request", http.StatusInternalServerError))
	}
}
