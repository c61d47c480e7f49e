package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
)

func newTestEngine(t *testing.T) *PricingEngine {
	t.Helper()
	engine, err := NewPricingEngine(PricingEngineDeps{
		Now: func() time.Time { return time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewPricingEngine error: %v", err)
	}
	return engine
}

func reefRunnerOffering() CharterOffering {
	full := int64(1100)
	return CharterOffering{
		Slug:           "reef-runner",
		Title:          "Reef Runner",
		Currency:       "USD",
		HalfDayPrice:   600,
		FullDayPrice:   &full,
		IncludedGuests: 4,
		MaxGuests:      8,
		ExtraGuestFee:  75,
		AddOns: []AddOnDefinition{
			{ID: "cooler-pack", Title: "Cooler pack", Pricing: domain.FlatPricing(25)},
			{ID: "snorkel-kit", Title: "Snorkel kit", Pricing: domain.PerGuestPricing(15)},
			{ID: "beach-bbq", Title: "Beach BBQ", Pricing: domain.TieredPerGuestPricing(180, 4)},
			{ID: "crew-tee", Title: "Crew tee", Pricing: domain.MerchUnitPricing(30, "size"), VariantOptions: []string{"S", "M", "L"}},
		},
		Activities: []ActivityDefinition{
			{ID: "snorkeling", Title: "Snorkeling", DurationMinutes: 60},
			{ID: "sandbar-stop", Title: "Sandbar stop", DurationMinutes: 45},
		},
		IsPublished: true,
	}
}

func TestPricingEngine_GuestOverage(t *testing.T) {
	engine := newTestEngine(t)

	selection := domain.NewSelectionState("reef-runner")
	selection.GuestCount = 6

	breakdown, err := engine.ComputePriceBreakdown(context.Background(), reefRunnerOffering(), selection)
	if err != nil {
		t.Fatalf("ComputePriceBreakdown error: %v", err)
	}

	if breakdown.BasePrice != 600 {
		t.Fatalf("expected base price 600, got %d", breakdown.BasePrice)
	}
	if breakdown.EffectiveGuestCount != 6 {
		t.Fatalf("expected effective guest count 6, got %d", breakdown.EffectiveGuestCount)
	}
	if breakdown.OverageGuestCount != 2 || breakdown.OverageCost != 150 {
		t.Fatalf("expected overage 2 guests / 150, got %d / %d", breakdown.OverageGuestCount, breakdown.OverageCost)
	}
	if breakdown.Total != 750 {
		t.Fatalf("expected total 750, got %d", breakdown.Total)
	}
}

func TestPricingEngine_FlatAddOn(t *testing.T) {
	engine := newTestEngine(t)

	selection := domain.NewSelectionState("reef-runner")
	selection.GuestCount = 6
	selection.AddOns["cooler-pack"] = AddOnSelection{Quantity: 2}

	breakdown, err := engine.ComputePriceBreakdown(context.Background(), reefRunnerOffering(), selection)
	if err != nil {
		t.Fatalf("ComputePriceBreakdown error: %v", err)
	}

	if len(breakdown.AddOnLines) != 1 {
		t.Fatalf("expected 1 add-on line, got %d", len(breakdown.AddOnLines))
	}
	line := breakdown.AddOnLines[0]
	if line.UnitPrice != 25 || line.Quantity != 2 || line.LineTotal != 50 {
		t.Fatalf("unexpected flat add-on line: %+v", line)
	}
	if breakdown.Total != 800 {
		t.Fatalf("expected total 800, got %d", breakdown.Total)
	}
}

func TestPricingEngine_PerGuestDoesNotReMultiply(t *testing.T) {
	engine := newTestEngine(t)

	// The stored quantity already carries the guest scaling from the first
	// increment; the unit price must be applied once.
	selection := domain.NewSelectionState("reef-runner")
	selection.GuestCount = 6
	selection.AddOns["snorkel-kit"] = AddOnSelection{Quantity: 6}

	breakdown, err := engine.ComputePriceBreakdown(context.Background(), reefRunnerOffering(), selection)
	if err != nil {
		t.Fatalf("ComputePriceBreakdown error: %v", err)
	}

	if len(breakdown.AddOnLines) != 1 {
		t.Fatalf("expected 1 add-on line, got %d", len(breakdown.AddOnLines))
	}
	line := breakdown.AddOnLines[0]
	if line.LineTotal != 90 {
		t.Fatalf("expected line total 90 (15 x 6), got %d", line.LineTotal)
	}
}

func TestPricingEngine_UnknownAddOnSkipped(t *testing.T) {
	engine := newTestEngine(t)

	selection := domain.NewSelectionState("reef-runner")
	selection.AddOns["retired-addon"] = AddOnSelection{Quantity: 3}

	breakdown, err := engine.ComputePriceBreakdown(context.Background(), reefRunnerOffering(), selection)
	if err != nil {
		t.Fatalf("ComputePriceBreakdown error: %v", err)
	}
	if len(breakdown.AddOnLines) != 0 {
		t.Fatalf("expected no priced lines, got %d", len(breakdown.AddOnLines))
	}
	if len(breakdown.Excluded) != 1 || breakdown.Excluded[0].Reason != domain.ExclusionUnknownAddOn {
		t.Fatalf("expected unknown add-on exclusion, got %+v", breakdown.Excluded)
	}
	if breakdown.Total != 600 {
		t.Fatalf("expected base-only total 600, got %d", breakdown.Total)
	}
}

func TestPricingEngine_MerchUnitVariantValidation(t *testing.T) {
	engine := newTestEngine(t)
	offering := reefRunnerOffering()

	cases := []struct {
		name    string
		variant string
		reason  domain.ExclusionReason
	}{
		{name: "missing", variant: "", reason: domain.ExclusionMissingVariant},
		{name: "invalid", variant: "XXL", reason: domain.ExclusionInvalidVariant},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			selection := domain.NewSelectionState("reef-runner")
			selection.AddOns["crew-tee"] = AddOnSelection{Quantity: 2, Variant: tc.variant}

			breakdown, err := engine.ComputePriceBreakdown(context.Background(), offering, selection)
			if err != nil {
				t.Fatalf("ComputePriceBreakdown error: %v", err)
			}
			if len(breakdown.AddOnLines) != 0 {
				t.Fatalf("expected line excluded, got %+v", breakdown.AddOnLines)
			}
			if len(breakdown.Excluded) != 1 || breakdown.Excluded[0].Reason != tc.reason {
				t.Fatalf("expected exclusion %s, got %+v", tc.reason, breakdown.Excluded)
			}
			if breakdown.Total != 600 {
				t.Fatalf("excluded line must not contribute to total, got %d", breakdown.Total)
			}
		})
	}

	selection := domain.NewSelectionState("reef-runner")
	selection.AddOns["crew-tee"] = AddOnSelection{Quantity: 2, Variant: "L"}
	breakdown, err := engine.ComputePriceBreakdown(context.Background(), offering, selection)
	if err != nil {
		t.Fatalf("ComputePriceBreakdown error: %v", err)
	}
	if len(breakdown.AddOnLines) != 1 || breakdown.AddOnLines[0].LineTotal != 60 {
		t.Fatalf("expected priced tee line with total 60, got %+v", breakdown.AddOnLines)
	}
}

func TestPricingEngine_LargeGroupSentinel(t *testing.T) {
	engine := newTestEngine(t)

	selection := domain.NewSelectionState("reef-runner")
	selection.GuestCount = 3
	selection.LargeGroup = true

	breakdown, err := engine.ComputePriceBreakdown(context.Background(), reefRunnerOffering(), selection)
	if err != nil {
		t.Fatalf("ComputePriceBreakdown error: %v", err)
	}
	if breakdown.EffectiveGuestCount != 9 {
		t.Fatalf("expected sentinel effective count 9, got %d", breakdown.EffectiveGuestCount)
	}
	if breakdown.OverageGuestCount != 5 {
		t.Fatalf("expected overage 5, got %d", breakdown.OverageGuestCount)
	}
}

func TestPricingEngine_UnsupportedDuration(t *testing.T) {
	engine := newTestEngine(t)
	offering := reefRunnerOffering()
	offering.FullDayPrice = nil

	selection := domain.NewSelectionState("reef-runner")
	selection.Duration = domain.DurationFullDay

	_, err := engine.ComputePriceBreakdown(context.Background(), offering, selection)
	if !errors.Is(err, ErrPricingUnsupportedDuration) {
		t.Fatalf("expected ErrPricingUnsupportedDuration, got %v", err)
	}
}

func TestPricingEngine_Idempotent(t *testing.T) {
	engine := newTestEngine(t)
	offering := reefRunnerOffering()

	selection := domain.NewSelectionState("reef-runner")
	selection.GuestCount = 7
	selection.AddOns["cooler-pack"] = AddOnSelection{Quantity: 1}
	selection.AddOns["crew-tee"] = AddOnSelection{Quantity: 3, Variant: "M"}
	selection.AddOns["snorkel-kit"] = AddOnSelection{Quantity: 7}

	first, err := engine.ComputePriceBreakdown(context.Background(), offering, selection)
	if err != nil {
		t.Fatalf("first ComputePriceBreakdown error: %v", err)
	}
	second, err := engine.ComputePriceBreakdown(context.Background(), offering, selection)
	if err != nil {
		t.Fatalf("second ComputePriceBreakdown error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical breakdowns, got %+v vs %+v", first, second)
	}
}

func TestPricingEngine_TotalMonotonicInGuests(t *testing.T) {
	engine := newTestEngine(t)
	offering := reefRunnerOffering()

	var previous int64 = -1
	for guests := 1; guests <= offering.MaxGuests; guests++ {
		selection := domain.NewSelectionState("reef-runner")
		selection.GuestCount = guests
		breakdown, err := engine.ComputePriceBreakdown(context.Background(), offering, selection)
		if err != nil {
			t.Fatalf("ComputePriceBreakdown(%d guests) error: %v", guests, err)
		}
		if breakdown.Total < previous {
			t.Fatalf("total decreased at %d guests: %d < %d", guests, breakdown.Total, previous)
		}
		previous = breakdown.Total
	}
}

func TestPricingEngine_NegativeCatalogPriceFatal(t *testing.T) {
	engine := newTestEngine(t)
	offering := reefRunnerOffering()
	offering.HalfDayPrice = -10

	_, err := engine.ComputePriceBreakdown(context.Background(), offering, domain.NewSelectionState("reef-runner"))
	if !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected ErrPricingInvalidInput, got %v", err)
	}
}
