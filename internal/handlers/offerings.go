package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saltline-charters/api/internal/platform/httpx"
	"github.com/saltline-charters/api/internal/platform/pagination"
	"github.com/saltline-charters/api/internal/repositories"
	"github.com/saltline-charters/api/internal/services"
)

const maxQuoteBodySize = 32 * 1024

// OfferingHandlers exposes the public charter catalog and the quote endpoint.
type OfferingHandlers struct {
	catalog services.CatalogService
	engine  *services.PricingEngine
	policy  services.SelectionPolicy
	quotes  RateLimiter
}

// OfferingHandlersDeps bundles collaborators for the offering endpoints.
type OfferingHandlersDeps struct {
	Catalog      services.CatalogService
	Engine       *services.PricingEngine
	Policy       services.SelectionPolicy
	QuoteLimiter RateLimiter
}

// NewOfferingHandlers constructs the offering handlers.
func NewOfferingHandlers(deps OfferingHandlersDeps) *OfferingHandlers {
	return &OfferingHandlers{
		catalog: deps.Catalog,
		engine:  deps.Engine,
		policy:  deps.Policy,
		quotes:  deps.QuoteLimiter,
	}
}

// Routes registers the public offering endpoints.
func (h *OfferingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listOfferings)
	r.Get("/{slug}", h.getOffering)
	r.Post("/{slug}/quote", h.quoteOffering)
}

func (h *OfferingHandlers) listOfferings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.ListOfferings(ctx, services.OfferingListCommand{
		OnlyPublished: true,
		Pagination: services.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	})
	if err != nil {
		writeOfferingError(ctx, w, err)
		return
	}

	items := make([]offeringSummaryPayload, 0, len(page.Items))
	for _, offering := range page.Items {
		items = append(items, buildOfferingSummaryPayload(offering))
	}

	writeJSONResponse(w, http.StatusOK, offeringListResponse{
		Offerings:     items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *OfferingHandlers) getOffering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	offering, err := h.catalog.GetOffering(ctx, slug)
	if err != nil {
		writeOfferingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, offeringDetailResponse{
		Offering: buildOfferingPayload(offering),
	})
}

func (h *OfferingHandlers) quoteOffering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil || h.engine == nil || h.policy == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}

	if h.quotes != nil && !h.quotes.Allow(sessionIDFromRequest(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many quote requests", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxQuoteBodySize)
	if err != nil {
		writeBodyReadError(ctx, w, err)
		return
	}

	var req selectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	offering, err := h.catalog.GetOffering(ctx, slug)
	if err != nil {
		writeOfferingError(ctx, w, err)
		return
	}

	selection, err := buildSelectionState(offering, req)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	breakdown, err := h.engine.ComputePriceBreakdown(ctx, offering, selection)
	if err != nil {
		writeQuoteError(ctx, w, err)
		return
	}
	pace := h.policy.EstimatePace(offering, selection)

	writeJSONResponse(w, http.StatusOK, quoteResponse{
		Breakdown: buildPriceBreakdownPayload(breakdown),
		Pace:      buildPaceEstimatePayload(pace),
	})
}

type offeringListResponse struct {
	Offerings     []offeringSummaryPayload `json:"offerings"`
	NextPageToken string                   `json:"next_page_token,omitempty"`
}

type offeringDetailResponse struct {
	Offering offeringPayload `json:"offering"`
}

type quoteResponse struct {
	Breakdown priceBreakdownPayload `json:"breakdown"`
	Pace      paceEstimatePayload   `json:"pace"`
}

type offeringSummaryPayload struct {
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	Summary        string `json:"summary,omitempty"`
	Currency       string `json:"currency"`
	HalfDayPrice   int64  `json:"half_day_price"`
	FullDayPrice   *int64 `json:"full_day_price,omitempty"`
	IncludedGuests int    `json:"included_guests"`
	MaxGuests      int    `json:"max_guests"`
}

type offeringPayload struct {
	Slug           string            `json:"slug"`
	Title          string            `json:"title"`
	Summary        string            `json:"summary,omitempty"`
	Currency       string            `json:"currency"`
	HalfDayPrice   int64             `json:"half_day_price"`
	FullDayPrice   *int64            `json:"full_day_price,omitempty"`
	IncludedGuests int               `json:"included_guests"`
	MaxGuests      int               `json:"max_guests"`
	ExtraGuestFee  int64             `json:"extra_guest_fee"`
	AddOns         []addOnPayload    `json:"add_ons"`
	Activities     []activityPayload `json:"activities"`
	IsPublished    bool              `json:"is_published"`
	UpdatedAt      string            `json:"updated_at"`
}

type addOnPayload struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	PricingKind      string   `json:"pricing_kind"`
	Amount           int64    `json:"amount,omitempty"`
	AmountPerGuest   int64    `json:"amount_per_guest,omitempty"`
	BaseAmount       int64    `json:"base_amount,omitempty"`
	IncludedGuests   int      `json:"included_guests,omitempty"`
	VariantDimension string   `json:"variant_dimension,omitempty"`
	VariantOptions   []string `json:"variant_options,omitempty"`
}

type activityPayload struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
}

func buildOfferingSummaryPayload(offering services.CharterOffering) offeringSummaryPayload {
	var fullDay *int64
	if offering.FullDayPrice != nil {
		price := *offering.FullDayPrice
		fullDay = &price
	}
	return offeringSummaryPayload{
		Slug:           offering.Slug,
		Title:          offering.Title,
		Summary:        offering.Summary,
		Currency:       offering.Currency,
		HalfDayPrice:   offering.HalfDayPrice,
		FullDayPrice:   fullDay,
		IncludedGuests: offering.IncludedGuests,
		MaxGuests:      offering.MaxGuests,
	}
}

func buildOfferingPayload(offering services.CharterOffering) offeringPayload {
	var fullDay *int64
	if offering.FullDayPrice != nil {
		price := *offering.FullDayPrice
		fullDay = &price
	}

	addOns := make([]addOnPayload, 0, len(offering.AddOns))
	for _, def := range offering.AddOns {
		addOns = append(addOns, addOnPayload{
			ID:               def.ID,
			Title:            def.Title,
			PricingKind:      string(def.Pricing.Kind),
			Amount:           def.Pricing.Amount,
			AmountPerGuest:   def.Pricing.AmountPerGuest,
			BaseAmount:       def.Pricing.BaseAmount,
			IncludedGuests:   def.Pricing.IncludedGuests,
			VariantDimension: def.Pricing.VariantDimension,
			VariantOptions:   append([]string(nil), def.VariantOptions...),
		})
	}

	activities := make([]activityPayload, 0, len(offering.Activities))
	for _, def := range offering.Activities {
		activities = append(activities, activityPayload{
			ID:              def.ID,
			Title:           def.Title,
			DurationMinutes: def.DurationMinutes,
		})
	}

	return offeringPayload{
		Slug:           offering.Slug,
		Title:          offering.Title,
		Summary:        offering.Summary,
		Currency:       offering.Currency,
		HalfDayPrice:   offering.HalfDayPrice,
		FullDayPrice:   fullDay,
		IncludedGuests: offering.IncludedGuests,
		MaxGuests:      offering.MaxGuests,
		ExtraGuestFee:  offering.ExtraGuestFee,
		AddOns:         addOns,
		Activities:     activities,
		IsPublished:    offering.IsPublished,
		UpdatedAt:      formatTime(offering.UpdatedAt),
	}
}

func writeBodyReadError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeOfferingError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidOffering):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogOfferingNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("offering_not_found", "offering not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog temporarily unavailable", http.StatusServiceUnavailable))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog repository unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}

func writeQuoteError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrPricingUnsupportedDuration):
		httpx.WriteError(ctx, w, httpx.NewError("unsupported_duration", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPricingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("quote_error", "failed to compute quote", http.StatusInternalServerError))
	}
}
