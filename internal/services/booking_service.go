package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBookingInvalidInput indicates the caller supplied invalid input.
var ErrBookingInvalidInput = errors.New("booking service: invalid input")

// ErrBookingUnavailable indicates the booking flow cannot proceed due to backend issues.
var ErrBookingUnavailable = errors.New("booking service: unavailable")

// BookingServiceDeps wires the engine, policy, cart, and concierge collaborators.
type BookingServiceDeps struct {
	Engine    *PricingEngine
	Policy    SelectionPolicy
	Carts     CartService
	Concierge ConciergeNotifier
	Clock     func() time.Time
	Logger    func(context.Context, string, map[string]any)
}

type bookingService struct {
	engine    *PricingEngine
	policy    SelectionPolicy
	carts     CartService
	concierge ConciergeNotifier
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
}

// NewBookingService constructs a BookingService enforcing dependency validation.
func NewBookingService(deps BookingServiceDeps) (BookingService, error) {
	if deps.Engine == nil {
		return nil, errors.New("booking service: pricing engine is required")
	}
	if deps.Policy == nil {
		return nil, errors.New("booking service: selection policy is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("booking service: cart service is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("booking service: clock is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	service := &bookingService{
		engine:    deps.Engine,
		policy:    deps.Policy,
		carts:     deps.Carts,
		concierge: deps.Concierge,
		now:       func() time.Time { return deps.Clock().UTC() },
		logger:    logger,
	}
	return service, nil
}

// AttemptInlineCheckout gates a selection before checkout. A selection
// flagged as a large group yields a concierge result and a hand-off
// notification instead of a composed cart; the caller shows the contact flow.
// Everything else reconciles the cart and returns the priced summary.
func (s *bookingService) AttemptInlineCheckout(ctx context.Context, cmd CheckoutAttemptCommand) (CheckoutAttemptResult, error) {
	if s == nil || s.engine == nil {
		return CheckoutAttemptResult{}, ErrBookingUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return CheckoutAttemptResult{}, fmt.Errorf("%w: session id required", ErrBookingInvalidInput)
	}
	if !strings.EqualFold(strings.TrimSpace(cmd.Selection.OfferingSlug), strings.TrimSpace(cmd.Offering.Slug)) {
		return CheckoutAttemptResult{}, fmt.Errorf("%w: selection does not belong to offering %s", ErrBookingInvalidInput, cmd.Offering.Slug)
	}

	breakdown, err := s.engine.ComputePriceBreakdown(ctx, cmd.Offering, cmd.Selection)
	if err != nil {
		return CheckoutAttemptResult{}, translateBookingPricingError(err)
	}
	pace := s.policy.EstimatePace(cmd.Offering, cmd.Selection)

	// The gate fires on the flag or on a raw guest count above capacity; the
	// clamped count the breakdown carries is not consulted here.
	if cmd.Selection.LargeGroup || cmd.Selection.GuestCount > cmd.Offering.MaxGuests {
		result := CheckoutAttemptResult{
			Outcome:    CheckoutOutcomeConcierge,
			GateReason: GateReasonLargeGroup,
			Breakdown:  breakdown,
			Pace:       pace,
		}
		s.logger(ctx, "booking.concierge_gate", map[string]any{
			"sessionId": sid,
			"offering":  cmd.Offering.Slug,
			"guests":    breakdown.EffectiveGuestCount,
		})
		if s.concierge != nil {
			req := ConciergeRequest{
				SessionID:    sid,
				OfferingSlug: cmd.Offering.Slug,
				GuestCount:   breakdown.EffectiveGuestCount,
				Reason:       GateReasonLargeGroup,
			}
			if notifyErr := s.concierge.NotifyConcierge(ctx, req); notifyErr != nil {
				s.logger(ctx, "booking.concierge_notify_failed", map[string]any{
					"sessionId": sid,
					"offering":  cmd.Offering.Slug,
					"error":     notifyErr.Error(),
				})
			}
		}
		return result, nil
	}

	cart, err := s.carts.Reconcile(ctx, ReconcileCartCommand{
		SessionID: sid,
		Offering:  cmd.Offering,
		Selection: cmd.Selection,
	})
	if err != nil {
		return CheckoutAttemptResult{}, translateBookingCartError(err)
	}

	return CheckoutAttemptResult{
		Outcome:   CheckoutOutcomeAccepted,
		Cart:      cart,
		Breakdown: breakdown,
		Pace:      pace,
	}, nil
}

func translateBookingPricingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPricingInvalidInput) || errors.Is(err, ErrPricingUnsupportedDuration) {
		return fmt.Errorf("%w: %s", ErrBookingInvalidInput, err.Error())
	}
	return ErrBookingUnavailable
}

func translateBookingCartError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCartInvalidInput) {
		return fmt.Errorf("%w: %s", ErrBookingInvalidInput, err.Error())
	}
	return ErrBookingUnavailable
}
