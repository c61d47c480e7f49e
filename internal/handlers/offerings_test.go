package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/services"
)

type stubCatalogService struct {
	offering services.CharterOffering
	page     domain.CursorPage[services.CharterOffering]
	err      error
	upserted *services.CharterOffering
	deleted  string
	lastSlug string
}

func (s *stubCatalogService) GetOffering(_ context.Context, slug string) (services.CharterOffering, error) {
	s.lastSlug = slug
	if s.err != nil {
		return services.CharterOffering{}, s.err
	}
	if !strings.EqualFold(s.offering.Slug, slug) {
		return services.CharterOffering{}, fmt.Errorf("%w: %s", services.ErrCatalogOfferingNotFound, slug)
	}
	return s.offering, nil
}

func (s *stubCatalogService) ListOfferings(context.Context, services.OfferingListCommand) (domain.CursorPage[services.CharterOffering], error) {
	if s.err != nil {
		return domain.CursorPage[services.CharterOffering]{}, s.err
	}
	return s.page, nil
}

func (s *stubCatalogService) UpsertOffering(_ context.Context, offering services.CharterOffering) (services.CharterOffering, error) {
	if s.err != nil {
		return services.CharterOffering{}, s.err
	}
	s.upserted = &offering
	return offering, nil
}

func (s *stubCatalogService) DeleteOffering(_ context.Context, slug string) error {
	s.deleted = slug
	return s.err
}

var _ services.CatalogService = (*stubCatalogService)(nil)

func sampleOffering() services.CharterOffering {
	fullDay := int64(120000)
	return services.CharterOffering{
		Slug:           "reef-runner",
		Title:          "Reef Runner",
		Summary:        "Half day on the flats",
		Currency:       "USD",
		HalfDayPrice:   65000,
		FullDayPrice:   &fullDay,
		IncludedGuests: 4,
		MaxGuests:      6,
		ExtraGuestFee:  7500,
		AddOns: []domain.AddOnDefinition{
			{ID: "cooler", Title: "Stocked cooler", Pricing: domain.FlatPricing(4500)},
			{
				ID:             "crew-tee",
				Title:          "Crew tee",
				Pricing:        domain.MerchUnitPricing(2800, "size"),
				VariantOptions: []string{"s", "m", "l"},
			},
		},
		Activities: []domain.ActivityDefinition{
			{ID: "snorkel", Title: "Snorkel stop", DurationMinutes: 60},
		},
		IsPublished: true,
		UpdatedAt:   time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
	}
}

func newOfferingTestHandlers(t *testing.T, catalog services.CatalogService) *OfferingHandlers {
	t.Helper()
	engine, err := services.NewPricingEngine(services.PricingEngineDeps{})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}
	return NewOfferingHandlers(OfferingHandlersDeps{
		Catalog: catalog,
		Engine:  engine,
		Policy:  services.NewSelectionPolicy(),
	})
}

func serveOfferingRequest(h *OfferingHandlers, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.Routes(router)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestListOfferings(t *testing.T) {
	catalog := &stubCatalogService{
		page: domain.CursorPage[services.CharterOffering]{
			Items:         []services.CharterOffering{sampleOffering()},
			NextPageToken: "tok",
		},
	}
	handlers := newOfferingTestHandlers(t, catalog)

	req := httptest.NewRequest(http.MethodGet, "/?pageSize=10", nil)
	rr := serveOfferingRequest(handlers, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body offeringListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Offerings) != 1 || body.Offerings[0].Slug != "reef-runner" {
		t.Fatalf("unexpected offerings %+v", body.Offerings)
	}
	if body.NextPageToken != "tok" {
		t.Fatalf("expected next page token, got %q", body.NextPageToken)
	}
}

func TestGetOfferingNotFound(t *testing.T) {
	catalog := &stubCatalogService{offering: sampleOffering()}
	handlers := newOfferingTestHandlers(t, catalog)

	req := httptest.NewRequest(http.MethodGet, "/no-such-boat", nil)
	rr := serveOfferingRequest(handlers, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestQuoteOffering(t *testing.T) {
	catalog := &stubCatalogService{offering: sampleOffering()}
	handlers := newOfferingTestHandlers(t, catalog)

	payload := `{
		"duration": "half",
		"guest_count": 5,
		"activities": ["snorkel"],
		"add_ons": {"cooler": {"quantity": 1}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/reef-runner/quote", strings.NewReader(payload))
	rr := serveOfferingRequest(handlers, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body quoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	// base 65000 + 1 overage guest 7500 + cooler 4500
	if body.Breakdown.Total != 77000 {
		t.Fatalf("expected total 77000, got %d", body.Breakdown.Total)
	}
	if body.Breakdown.OverageGuestCount != 1 {
		t.Fatalf("expected 1 overage guest, got %d", body.Breakdown.OverageGuestCount)
	}
	if body.Pace.TotalMinutes != 60 {
		t.Fatalf("expected 60 activity minutes, got %d", body.Pace.TotalMinutes)
	}
}

func TestQuoteOfferingReportsExclusions(t *testing.T) {
	catalog := &stubCatalogService{offering: sampleOffering()}
	handlers := newOfferingTestHandlers(t, catalog)

	payload := `{
		"duration": "half",
		"guest_count": 2,
		"add_ons": {"crew-tee": {"quantity": 1}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/reef-runner/quote", strings.NewReader(payload))
	rr := serveOfferingRequest(handlers, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body quoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Breakdown.Excluded) != 1 || body.Breakdown.Excluded[0].Reason != string(domain.ExclusionMissingVariant) {
		t.Fatalf("expected missing_variant exclusion, got %+v", body.Breakdown.Excluded)
	}
	if body.Breakdown.Total != 65000 {
		t.Fatalf("expected base-only total, got %d", body.Breakdown.Total)
	}
}

func TestQuoteOfferingNormalizesUnsupportedFullDay(t *testing.T) {
	offering := sampleOffering()
	offering.FullDayPrice = nil
	catalog := &stubCatalogService{offering: offering}
	handlers := newOfferingTestHandlers(t, catalog)

	payload := `{"duration": "full", "guest_count": 2}`
	req := httptest.NewRequest(http.MethodPost, "/reef-runner/quote", strings.NewReader(payload))
	rr := serveOfferingRequest(handlers, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with half-day fallback, got %d: %s", rr.Code, rr.Body.String())
	}

	var body quoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Breakdown.Total != 65000 {
		t.Fatalf("expected half-day total 65000, got %d", body.Breakdown.Total)
	}
}

func TestQuoteOfferingRejectsUnknownDuration(t *testing.T) {
	catalog := &stubCatalogService{offering: sampleOffering()}
	handlers := newOfferingTestHandlers(t, catalog)

	req := httptest.NewRequest(http.MethodPost, "/reef-runner/quote", strings.NewReader(`{"duration":"weekend"}`))
	rr := serveOfferingRequest(handlers, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestQuoteOfferingEmptyBody(t *testing.T) {
	catalog := &stubCatalogService{offering: sampleOffering()}
	handlers := newOfferingTestHandlers(t, catalog)

	req := httptest.NewRequest(http.MethodPost, "/reef-runner/quote", strings.NewReader(""))
	rr := serveOfferingRequest(handlers, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestQuoteOfferingRateLimited(t *testing.T) {
	catalog := &stubCatalogService{offering: sampleOffering()}
	engine, err := services.NewPricingEngine(services.PricingEngineDeps{})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}
	handlers := NewOfferingHandlers(OfferingHandlersDeps{
		Catalog:      catalog,
		Engine:       engine,
		Policy:       services.NewSelectionPolicy(),
		QuoteLimiter: newSimpleRateLimiter(1, time.Minute, nil),
	})

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/reef-runner/quote", strings.NewReader(`{"duration":"half","guest_count":2}`))
		req.Header.Set(sessionHeader, "sess_1")
		rr := serveOfferingRequest(handlers, req)
		if rr.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rr.Code)
		}
	}
}
