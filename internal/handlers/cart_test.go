package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saltline-charters/api/internal/services"
)

type stubCartService struct {
	cart         services.Cart
	err          error
	reconcileCmd *services.ReconcileCartCommand
	removeCmd    *services.RemoveCartLineCommand
	quantityCmd  *services.SetCartLineQuantityCommand
	clearedFor   string
}

func (s *stubCartService) GetOrCreateCart(_ context.Context, sessionID string) (services.Cart, error) {
	if s.err != nil {
		return services.Cart{}, s.err
	}
	cart := s.cart
	cart.SessionID = sessionID
	return cart, nil
}

func (s *stubCartService) Reconcile(_ context.Context, cmd services.ReconcileCartCommand) (services.Cart, error) {
	if s.err != nil {
		return services.Cart{}, s.err
	}
	s.reconcileCmd = &cmd
	return s.cart, nil
}

func (s *stubCartService) RemoveLine(_ context.Context, cmd services.RemoveCartLineCommand) (services.Cart, error) {
	if s.err != nil {
		return services.Cart{}, s.err
	}
	s.removeCmd = &cmd
	return s.cart, nil
}

func (s *stubCartService) SetLineQuantity(_ context.Context, cmd services.SetCartLineQuantityCommand) (services.Cart, error) {
	if s.err != nil {
		return services.Cart{}, s.err
	}
	s.quantityCmd = &cmd
	return s.cart, nil
}

func (s *stubCartService) ClearCart(_ context.Context, sessionID string) error {
	s.clearedFor = sessionID
	return s.err
}

var _ services.CartService = (*stubCartService)(nil)

func sampleCart() services.Cart {
	return services.Cart{
		ID:        "cart_1",
		SessionID: "sess_1",
		Currency:  "USD",
		Lines: []services.CartLineItem{
			{Identity: "base:reef-runner:half", DisplayName: "Reef Runner half day", UnitPrice: 65000, Quantity: 1},
			{Identity: "addon:cooler", DisplayName: "Stocked cooler", UnitPrice: 4500, Quantity: 1},
		},
		CreatedAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	}
}

func serveCartRequest(h *CartHandlers, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.Routes(router)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGetCartRequiresSession(t *testing.T) {
	handlers := NewCartHandlers(CartHandlersDeps{Carts: &stubCartService{}, Catalog: &stubCatalogService{}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := serveCartRequest(handlers, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session header, got %d", rr.Code)
	}
}

func TestGetCart(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	handlers := NewCartHandlers(CartHandlersDeps{Carts: carts, Catalog: &stubCatalogService{}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(sessionHeader, "sess_1")
	rr := serveCartRequest(handlers, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body cartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Cart.Total != 69500 {
		t.Fatalf("expected total 69500, got %d", body.Cart.Total)
	}
	if len(body.Cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(body.Cart.Lines))
	}
}

func TestReconcileCart(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	catalog := &stubCatalogService{offering: sampleOffering()}
	handlers := NewCartHandlers(CartHandlersDeps{Carts: carts, Catalog: catalog})

	payload := `{
		"offering_slug": "reef-runner",
		"selection": {"duration": "half", "guest_count": 3, "add_ons": {"cooler": {"quantity": 1}}}
	}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(payload))
	req.Header.Set(sessionHeader, "sess_1")
	rr := serveCartRequest(handlers, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if carts.reconcileCmd == nil {
		t.Fatalf("expected reconcile to be called")
	}
	if carts.reconcileCmd.SessionID != "sess_1" {
		t.Fatalf("unexpected session %q", carts.reconcileCmd.SessionID)
	}
	if carts.reconcileCmd.Selection.GuestCount != 3 {
		t.Fatalf("unexpected guest count %d", carts.reconcileCmd.Selection.GuestCount)
	}
	if _, ok := carts.reconcileCmd.Selection.AddOns["cooler"]; !ok {
		t.Fatalf("expected cooler selection, got %+v", carts.reconcileCmd.Selection.AddOns)
	}
}

func TestReconcileCartLargeGroupRoutedToConcierge(t *testing.T) {
	carts := &stubCartService{err: services.ErrCartConciergeRequired}
	catalog := &stubCatalogService{offering: sampleOffering()}
	handlers := NewCartHandlers(CartHandlersDeps{Carts: carts, Catalog: catalog})

	payload := `{
		"offering_slug": "reef-runner",
		"selection": {"duration": "half", "guest_count": 3, "large_group": true}
	}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(payload))
	req.Header.Set(sessionHeader, "sess_1")
	rr := serveCartRequest(handlers, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Error != "concierge_required" {
		t.Fatalf("expected concierge_required code, got %q", body.Error)
	}
}

func TestReconcileCartUnknownOffering(t *testing.T) {
	handlers := NewCartHandlers(CartHandlersDeps{
		Carts:   &stubCartService{cart: sampleCart()},
		Catalog: &stubCatalogService{offering: sampleOffering()},
	})

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"offering_slug":"ghost-boat","selection":{}}`))
	req.Header.Set(sessionHeader, "sess_1")
	rr := serveCartRequest(handlers, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSetLineQuantity(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	handlers := NewCartHandlers(CartHandlersDeps{Carts: carts, Catalog: &stubCatalogService{}})

	req := httptest.NewRequest(http.MethodPut, "/lines/addon:cooler", strings.NewReader(`{"quantity":2}`))
	req.Header.Set(sessionHeader, "sess_1")
	rr := serveCartRequest(handlers, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if carts.quantityCmd == nil || carts.quantityCmd.Identity != "addon:cooler" || carts.quantityCmd.Quantity != 2 {
		t.Fatalf("unexpected command %+v", carts.quantityCmd)
	}
}

func TestRemoveLineNotFound(t *testing.T) {
	carts := &stubCartService{err: services.ErrCartLineNotFound}
	handlers := NewCartHandlers(CartHandlersDeps{Carts: carts, Catalog: &stubCatalogService{}})

	req := httptest.NewRequest(http.MethodDelete, "/lines/ghost", nil)
	req.Header.Set(sessionHeader, "sess_1")
	rr := serveCartRequest(handlers, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestClearCart(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	handlers := NewCartHandlers(CartHandlersDeps{Carts: carts, Catalog: &stubCatalogService{}})

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set(sessionHeader, "sess_1")
	rr := serveCartRequest(handlers, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if carts.clearedFor != "sess_1" {
		t.Fatalf("expected clear for sess_1, got %q", carts.clearedFor)
	}
}
