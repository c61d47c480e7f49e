package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/saltline-charters/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due to backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartNotFound indicates the requested cart does not exist.
var ErrCartNotFound = errors.New("cart service: not found")

// ErrCartLineNotFound indicates the cart holds no line with the given identity.
var ErrCartLineNotFound = errors.New("cart service: line not found")

// ErrCartConciergeRequired indicates the selection must go through the
// concierge hand-off; no cart is materialized for it.
var ErrCartConciergeRequired = errors.New("cart service: large group requires concierge")

// CartServiceDeps wires the repository, composer, and pricing dependencies for cart operations.
type CartServiceDeps struct {
	Repository      repositories.CartRepository
	Composer        *CartComposer
	Engine          *PricingEngine
	Clock           func() time.Time
	DefaultCurrency string
	Logger          func(context.Context, string, map[string]any)
	IDGenerator     func() string
}

type cartService struct {
	repo     repositories.CartRepository
	composer *CartComposer
	engine   *PricingEngine
	newID    func() string
	now      func() time.Time
	currency string
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Composer == nil {
		return nil, errors.New("cart service: composer is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("cart service: pricing engine is required")
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	defaultCurrency := strings.ToUpper(strings.TrimSpace(deps.DefaultCurrency))
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	service := &cartService{
		repo:     deps.Repository,
		composer: deps.Composer,
		engine:   deps.Engine,
		newID:    idGen,
		now:      func() time.Time { return deps.Clock().UTC() },
		currency: defaultCurrency,
		logger:   logger,
	}
	return service, nil
}

// GetOrCreateCart loads the cart for the session, creating an empty one when absent.
func (s *cartService) GetOrCreateCart(ctx context.Context, sessionID string) (Cart, error) {
	if s == nil || s.repo == nil {
		return Cart{}, ErrCartUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return Cart{}, fmt.Errorf("%w: session id required", ErrCartInvalidInput)
	}

	cart, err := s.repo.GetBySession(ctx, sid)
	if err != nil {
		if isRepoNotFound(err) {
			saved, saveErr := s.repo.Upsert(ctx, s.newCart(sid))
			if saveErr != nil {
				return Cart{}, s.translateRepoError(saveErr)
			}
			return saved, nil
		}
		return Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

// Reconcile recomputes the breakdown for the selection, composes the
// replacement line set, and merges it into the persisted cart. Lines absent
// from the new composition are removed; matching identities get the new
// quantity and price. The whole selection is reflected in one write so the
// cart never holds a partial composition.
func (s *cartService) Reconcile(ctx context.Context, cmd ReconcileCartCommand) (Cart, error) {
	if s == nil || s.repo == nil {
		return Cart{}, ErrCartUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return Cart{}, fmt.Errorf("%w: session id required", ErrCartInvalidInput)
	}
	if !strings.EqualFold(strings.TrimSpace(cmd.Selection.OfferingSlug), strings.TrimSpace(cmd.Offering.Slug)) {
		return Cart{}, fmt.Errorf("%w: selection does not belong to offering %s", ErrCartInvalidInput, cmd.Offering.Slug)
	}

	// Same gate as the inline checkout attempt: a flagged or over-capacity
	// selection never composes lines, so the escalation sentinel price cannot
	// end up in a stored total.
	if cmd.Selection.LargeGroup || cmd.Selection.GuestCount > cmd.Offering.MaxGuests {
		return Cart{}, fmt.Errorf("%w: offering %s", ErrCartConciergeRequired, cmd.Offering.Slug)
	}

	breakdown, err := s.engine.ComputePriceBreakdown(ctx, cmd.Offering, cmd.Selection)
	if err != nil {
		return Cart{}, translatePricingError(err)
	}

	composed := s.composer.ComposeCartLines(cmd.Offering, cmd.Selection, breakdown)

	cart, err := s.loadOrNewCart(ctx, sid)
	if err != nil {
		return Cart{}, err
	}

	cart.Currency = s.resolveCurrency(cart.Currency, cmd.Offering.Currency)
	cart.Lines = s.composer.ReconcileLines(cart.Lines, composed)
	cart.UpdatedAt = s.now()

	saved, err := s.repo.Upsert(ctx, cart)
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}

	s.logger(ctx, "cart.reconciled", map[string]any{
		"sessionId": sid,
		"offering":  cmd.Offering.Slug,
		"lines":     len(saved.Lines),
		"total":     saved.Total(),
	})
	return saved, nil
}

// RemoveLine deletes the line with the given identity from the cart.
func (s *cartService) RemoveLine(ctx context.Context, cmd RemoveCartLineCommand) (Cart, error) {
	return s.mutateLine(ctx, cmd.SessionID, cmd.Identity, func(lines []CartLineItem, idx int) []CartLineItem {
		return append(lines[:idx], lines[idx+1:]...)
	})
}

// SetLineQuantity replaces the quantity on an existing line. Quantities at or
// below zero remove the line, matching what decrementing to nothing means on
// the booking page.
func (s *cartService) SetLineQuantity(ctx context.Context, cmd SetCartLineQuantityCommand) (Cart, error) {
	return s.mutateLine(ctx, cmd.SessionID, cmd.Identity, func(lines []CartLineItem, idx int) []CartLineItem {
		if cmd.Quantity <= 0 {
			return append(lines[:idx], lines[idx+1:]...)
		}
		lines[idx].Quantity = cmd.Quantity
		return lines
	})
}

// ClearCart removes the session's cart entirely.
func (s *cartService) ClearCart(ctx context.Context, sessionID string) error {
	if s == nil || s.repo == nil {
		return ErrCartUnavailable
	}
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return fmt.Errorf("%w: session id required", ErrCartInvalidInput)
	}
	if err := s.repo.Delete(ctx, sid); err != nil {
		if isRepoNotFound(err) {
			return nil
		}
		return s.translateRepoError(err)
	}
	return nil
}

func (s *cartService) mutateLine(ctx context.Context, sessionID, identity string, apply func([]CartLineItem, int) []CartLineItem) (Cart, error) {
	if s == nil || s.repo == nil {
		return Cart{}, ErrCartUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return Cart{}, fmt.Errorf("%w: session id required", ErrCartInvalidInput)
	}
	target := strings.TrimSpace(identity)
	if target == "" {
		return Cart{}, fmt.Errorf("%w: line identity required", ErrCartInvalidInput)
	}

	cart, err := s.repo.GetBySession(ctx, sid)
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}

	idx := -1
	for i, line := range cart.Lines {
		if line.Identity == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Cart{}, fmt.Errorf("%w: %s", ErrCartLineNotFound, target)
	}

	cart.Lines = apply(cart.Lines, idx)
	cart.UpdatedAt = s.now()

	saved, err := s.repo.Upsert(ctx, cart)
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}
	return saved, nil
}

func (s *cartService) loadOrNewCart(ctx context.Context, sessionID string) (Cart, error) {
	cart, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return s.newCart(sessionID), nil
		}
		return Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

func (s *cartService) newCart(sessionID string) Cart {
	now := s.now()
	return Cart{
		ID:        s.newID(),
		SessionID: sessionID,
		Currency:  s.currency,
		Lines:     []CartLineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *cartService) resolveCurrency(current, offering string) string {
	if trimmed := strings.ToUpper(strings.TrimSpace(offering)); trimmed != "" {
		return trimmed
	}
	if trimmed := strings.ToUpper(strings.TrimSpace(current)); trimmed != "" {
		return trimmed
	}
	return s.currency
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCartNotFound
		case repoErr.IsUnavailable():
			return ErrCartUnavailable
		}
		return ErrCartUnavailable
	}
	return ErrCartUnavailable
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func translatePricingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPricingInvalidInput) || errors.Is(err, ErrPricingUnsupportedDuration) {
		return fmt.Errorf("%w: %s", ErrCartInvalidInput, err.Error())
	}
	return ErrCartUnavailable
}
