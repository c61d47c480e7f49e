package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/platform/httpx"
	"github.com/saltline-charters/api/internal/platform/pagination"
	"github.com/saltline-charters/api/internal/services"
)

const maxAdminBodySize = 256 * 1024

// AdminCatalogHandlers exposes staff catalog and content management endpoints.
type AdminCatalogHandlers struct {
	catalog services.CatalogService
	content services.ContentService
}

// AdminCatalogHandlersDeps bundles collaborators for the admin endpoints.
type AdminCatalogHandlersDeps struct {
	Catalog services.CatalogService
	Content services.ContentService
}

// NewAdminCatalogHandlers constructs the admin catalog handlers.
func NewAdminCatalogHandlers(deps AdminCatalogHandlersDeps) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{
		catalog: deps.Catalog,
		content: deps.Content,
	}
}

// Routes registers the admin catalog and content endpoints.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/offerings", h.listOfferings)
	r.Put("/offerings/{slug}", h.upsertOffering)
	r.Delete("/offerings/{slug}", h.deleteOffering)
	r.Get("/pages", h.listPages)
	r.Put("/pages", h.upsertPage)
	r.Delete("/pages/{pageId}", h.deletePage)
}

func (h *AdminCatalogHandlers) listOfferings(w http.ResponseWriter, r *http.Request) {
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
		OnlyPublished: false,
		Pagination: services.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	})
	if err != nil {
		writeOfferingError(ctx, w, err)
		return
	}

	items := make([]offeringPayload, 0, len(page.Items))
	for _, offering := range page.Items {
		items = append(items, buildOfferingPayload(offering))
	}

	writeJSONResponse(w, http.StatusOK, adminOfferingListResponse{
		Offerings:     items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *AdminCatalogHandlers) upsertOffering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyReadError(ctx, w, err)
		return
	}

	var req upsertOfferingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	offering, err := buildOfferingFromRequest(strings.TrimSpace(chi.URLParam(r, "slug")), req)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	saved, err := h.catalog.UpsertOffering(ctx, offering)
	if err != nil {
		writeOfferingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, offeringDetailResponse{Offering: buildOfferingPayload(saved)})
}

func (h *AdminCatalogHandlers) deleteOffering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if err := h.catalog.DeleteOffering(ctx, slug); err != nil {
		writeOfferingError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminCatalogHandlers) listPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.ContentPageListCommand{
		Pagination: services.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	}
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); locale != "" {
		cmd.Locale = &locale
	}

	page, err := h.content.ListPages(ctx, cmd)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	items := make([]contentPagePayload, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, buildContentPagePayload(item))
	}

	writeJSONResponse(w, http.StatusOK, contentPageListResponse{
		Pages:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *AdminCatalogHandlers) upsertPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyReadError(ctx, w, err)
		return
	}

	var req upsertPageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	saved, err := h.content.UpsertPage(ctx, domain.ContentPage{
		ID:        strings.TrimSpace(req.ID),
		Slug:      strings.TrimSpace(req.Slug),
		Locale:    strings.TrimSpace(req.Locale),
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		HeroImage: strings.TrimSpace(req.HeroImage),
		Status:    strings.TrimSpace(req.Status),
	})
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, contentPageResponse{Page: buildContentPagePayload(saved)})
}

func (h *AdminCatalogHandlers) deletePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	pageID := strings.TrimSpace(chi.URLParam(r, "pageId"))
	if err := h.content.DeletePage(ctx, pageID); err != nil {
		writeContentError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type adminOfferingListResponse struct {
	Offerings     []offeringPayload `json:"offerings"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type contentPageListResponse struct {
	Pages         []contentPagePayload `json:"pages"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

type upsertOfferingRequest struct {
	Title          string                `json:"title"`
	Summary        string                `json:"summary"`
	Currency       string                `json:"currency"`
	HalfDayPrice   int64                 `json:"half_day_price"`
	FullDayPrice   *int64                `json:"full_day_price"`
	IncludedGuests int                   `json:"included_guests"`
	MaxGuests      int                   `json:"max_guests"`
	ExtraGuestFee  int64                 `json:"extra_guest_fee"`
	AddOns         []upsertAddOnRequest  `json:"add_ons"`
	Activities     []upsertActivityInput `json:"activities"`
	IsPublished    bool                  `json:"is_published"`
}

type upsertAddOnRequest struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	PricingKind      string   `json:"pricing_kind"`
	Amount           int64    `json:"amount"`
	AmountPerGuest   int64    `json:"amount_per_guest"`
	BaseAmount       int64    `json:"base_amount"`
	IncludedGuests   int      `json:"included_guests"`
	VariantDimension string   `json:"variant_dimension"`
	VariantOptions   []string `json:"variant_options"`
}

type upsertActivityInput struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
}

type upsertPageRequest struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Locale    string `json:"locale"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	HeroImage string `json:"hero_image"`
	Status    string `json:"status"`
}

func buildOfferingFromRequest(slug string, req upsertOfferingRequest) (domain.CharterOffering, error) {
	if slug == "" {
		return domain.CharterOffering{}, fmt.Errorf("offering slug is required")
	}

	addOns := make([]domain.AddOnDefinition, 0, len(req.AddOns))
	for _, input := range req.AddOns {
		pricing, err := buildPricingPolicy(input)
		if err != nil {
			return domain.CharterOffering{}, err
		}
		addOns = append(addOns, domain.AddOnDefinition{
			ID:             strings.TrimSpace(input.ID),
			Title:          strings.TrimSpace(input.Title),
			Pricing:        pricing,
			VariantOptions: append([]string(nil), input.VariantOptions...),
		})
	}

	activities := make([]domain.ActivityDefinition, 0, len(req.Activities))
	for _, input := range req.Activities {
		activities = append(activities, domain.ActivityDefinition{
			ID:              strings.TrimSpace(input.ID),
			Title:           strings.TrimSpace(input.Title),
			DurationMinutes: input.DurationMinutes,
		})
	}

	var fullDay *int64
	if req.FullDayPrice != nil {
		price := *req.FullDayPrice
		fullDay = &price
	}

	return domain.CharterOffering{
		Slug:           slug,
		Title:          strings.TrimSpace(req.Title),
		Summary:        strings.TrimSpace(req.Summary),
		Currency:       strings.TrimSpace(req.Currency),
		HalfDayPrice:   req.HalfDayPrice,
		FullDayPrice:   fullDay,
		IncludedGuests: req.IncludedGuests,
		MaxGuests:      req.MaxGuests,
		ExtraGuestFee:  req.ExtraGuestFee,
		AddOns:         addOns,
		Activities:     activities,
		IsPublished:    req.IsPublished,
	}, nil
}

func buildPricingPolicy(input upsertAddOnRequest) (domain.AddOnPricingPolicy, error) {
	switch domain.AddOnPricingKind(strings.ToLower(strings.TrimSpace(input.PricingKind))) {
	case domain.AddOnPricingFlat:
		return domain.FlatPricing(input.Amount), nil
	case domain.AddOnPricingPerGuest:
		return domain.PerGuestPricing(input.AmountPerGuest), nil
	case domain.AddOnPricingTieredPerGuest:
		return domain.TieredPerGuestPricing(input.BaseAmount, input.IncludedGuests), nil
	case domain.AddOnPricingMerchUnit:
		return domain.MerchUnitPricing(input.Amount, strings.TrimSpace(input.VariantDimension)), nil
	}
	return domain.AddOnPricingPolicy{}, fmt.Errorf("unknown pricing kind %q for add-on %s", input.PricingKind, input.ID)
}
