package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
)

var (
	// ErrPricingInvalidInput signals malformed catalog data such as negative prices.
	ErrPricingInvalidInput = errors.New("pricing engine: invalid input")
	// ErrPricingUnsupportedDuration is returned when the selection asks for a
	// duration the offering does not price.
	ErrPricingUnsupportedDuration = errors.New("pricing engine: unsupported duration")
)

// PricingEngine computes price breakdowns from an offering and a selection.
// Calculation is pure: same inputs always yield the same breakdown, and no
// state is read or written. Safe to call on every selection change.
type PricingEngine struct {
	now    func() time.Time
	logger func(context.Context, string, map[string]any)
}

type PricingEngineDeps struct {
	Now    func() time.Time
	Logger func(context.Context, string, map[string]any)
}

func NewPricingEngine(deps PricingEngineDeps) (*PricingEngine, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	engine := &PricingEngine{
		now: func() time.Time {
			return now().UTC()
		},
		logger: logger,
	}
	return engine, nil
}

// ComputePriceBreakdown prices a selection against its offering.
//
// Selected add-ons that no longer exist in the catalog are skipped and
// reported in Excluded rather than failing the whole computation; the same
// goes for merch add-ons whose variant is missing or not one of the options.
// PerGuest quantities already encode guest scaling, so the stored quantity is
// priced as-is and never multiplied by the guest count again.
func (e *PricingEngine) ComputePriceBreakdown(ctx context.Context, offering CharterOffering, selection SelectionState) (PriceBreakdown, error) {
	if err := validateOfferingPricing(offering); err != nil {
		return PriceBreakdown{}, err
	}

	base, ok := offering.BasePrice(selection.Duration)
	if !ok {
		return PriceBreakdown{}, fmt.Errorf("%w: offering %s has no %s price", ErrPricingUnsupportedDuration, offering.Slug, selection.Duration)
	}

	effectiveGuests := effectiveGuestCount(offering, selection)

	overageGuests := 0
	if effectiveGuests > offering.IncludedGuests {
		overageGuests = effectiveGuests - offering.IncludedGuests
	}
	overageCost := int64(overageGuests) * offering.ExtraGuestFee

	lines := make([]AddOnLine, 0, len(selection.AddOns))
	excluded := make([]ExcludedAddOn, 0)

	for _, addOnID := range sortedAddOnIDs(selection.AddOns) {
		sel := selection.AddOns[addOnID]
		if sel.Quantity <= 0 {
			continue
		}

		def, found := offering.AddOn(addOnID)
		if !found {
			e.logger(ctx, "pricing.add_on_skipped", map[string]any{"offering": offering.Slug, "addOnId": addOnID, "reason": string(domain.ExclusionUnknownAddOn)})
			excluded = append(excluded, ExcludedAddOn{AddOnID: addOnID, Reason: domain.ExclusionUnknownAddOn})
			continue
		}

		variant := strings.TrimSpace(sel.Variant)
		if def.Pricing.RequiresVariant() {
			if variant == "" {
				excluded = append(excluded, ExcludedAddOn{AddOnID: def.ID, Reason: domain.ExclusionMissingVariant})
				continue
			}
			if !def.HasVariant(variant) {
				excluded = append(excluded, ExcludedAddOn{AddOnID: def.ID, Reason: domain.ExclusionInvalidVariant})
				continue
			}
		} else {
			variant = ""
		}

		unit := addOnUnitPrice(def.Pricing)
		lines = append(lines, AddOnLine{
			AddOnID:   def.ID,
			Variant:   variant,
			UnitPrice: unit,
			Quantity:  sel.Quantity,
			LineTotal: unit * int64(sel.Quantity),
		})
	}

	total := base + overageCost
	for _, line := range lines {
		total += line.LineTotal
	}

	return PriceBreakdown{
		Currency:            offering.Currency,
		BasePrice:           base,
		EffectiveGuestCount: effectiveGuests,
		OverageGuestCount:   overageGuests,
		OverageCost:         overageCost,
		AddOnLines:          lines,
		Excluded:            excluded,
		Total:               total,
	}, nil
}

// effectiveGuestCount resolves the guest count used for overage and
// auto-scale decisions. The large-group flag prices as capacity plus one so
// previews stay monotone, but a flagged selection never reaches checkout.
func effectiveGuestCount(offering CharterOffering, selection SelectionState) int {
	if selection.LargeGroup {
		return offering.MaxGuests + 1
	}
	count := selection.GuestCount
	if count < 1 {
		count = 1
	}
	if offering.MaxGuests > 0 && count > offering.MaxGuests {
		count = offering.MaxGuests
	}
	return count
}

// addOnUnitPrice resolves the per-unit price of an add-on policy. PerGuest
// returns the per-guest amount because the selection quantity carries the
// guest multiplier; TieredPerGuest returns the base amount because guests
// beyond the tier are charged through the offering overage fee.
func addOnUnitPrice(policy domain.AddOnPricingPolicy) int64 {
	switch policy.Kind {
	case domain.AddOnPricingFlat, domain.AddOnPricingMerchUnit:
		return policy.Amount
	case domain.AddOnPricingPerGuest:
		return policy.AmountPerGuest
	case domain.AddOnPricingTieredPerGuest:
		return policy.BaseAmount
	}
	return 0
}

func validateOfferingPricing(offering CharterOffering) error {
	if strings.TrimSpace(offering.Slug) == "" {
		return fmt.Errorf("%w: offering slug required", ErrPricingInvalidInput)
	}
	if offering.HalfDayPrice < 0 {
		return fmt.Errorf("%w: offering %s half-day price cannot be negative", ErrPricingInvalidInput, offering.Slug)
	}
	if offering.FullDayPrice != nil && *offering.FullDayPrice < 0 {
		return fmt.Errorf("%w: offering %s full-day price cannot be negative", ErrPricingInvalidInput, offering.Slug)
	}
	if offering.ExtraGuestFee < 0 {
		return fmt.Errorf("%w: offering %s extra guest fee cannot be negative", ErrPricingInvalidInput, offering.Slug)
	}
	if offering.IncludedGuests < 0 || offering.MaxGuests < offering.IncludedGuests {
		return fmt.Errorf("%w: offering %s guest bounds invalid", ErrPricingInvalidInput, offering.Slug)
	}
	for _, def := range offering.AddOns {
		if addOnUnitPrice(def.Pricing) < 0 {
			return fmt.Errorf("%w: add-on %s unit price cannot be negative", ErrPricingInvalidInput, def.ID)
		}
	}
	return nil
}

func sortedAddOnIDs(selections map[string]AddOnSelection) []string {
	ids := make([]string, 0, len(selections))
	for id := range selections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
