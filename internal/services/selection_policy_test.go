package services

import (
	"testing"

	domain "github.com/saltline-charters/api/internal/domain"
)

func TestSelectionPolicy_GuestCountClamping(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()
	state := policy.NewSelection(offering)

	cases := []struct {
		name  string
		input int
		want  int
	}{
		{name: "zero", input: 0, want: 1},
		{name: "negative", input: -5, want: 1},
		{name: "in_range", input: 5, want: 5},
		{name: "at_max", input: 8, want: 8},
		{name: "over_max", input: 40, want: 8},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := policy.SetGuestCount(offering, state, tc.input)
			if next.GuestCount != tc.want {
				t.Fatalf("SetGuestCount(%d) = %d, want %d", tc.input, next.GuestCount, tc.want)
			}
		})
	}
}

func TestSelectionPolicy_SetLargeGroupKeepsGuestCount(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()

	state := policy.SetGuestCount(offering, policy.NewSelection(offering), 5)
	state = policy.SetLargeGroup(offering, state, true)

	if !state.LargeGroup {
		t.Fatalf("expected large group flag set")
	}
	if state.GuestCount != 5 {
		t.Fatalf("guest count should survive the flag, got %d", state.GuestCount)
	}
}

func TestSelectionPolicy_DurationChoice(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()

	state := policy.SetDurationChoice(offering, policy.NewSelection(offering), domain.DurationFullDay)
	if state.Duration != domain.DurationFullDay {
		t.Fatalf("expected full day accepted, got %s", state.Duration)
	}

	halfOnly := reefRunnerOffering()
	halfOnly.FullDayPrice = nil
	state = policy.SetDurationChoice(halfOnly, policy.NewSelection(halfOnly), domain.DurationFullDay)
	if state.Duration != domain.DurationHalfDay {
		t.Fatalf("unsupported full day must be a no-op, got %s", state.Duration)
	}
}

func TestSelectionPolicy_AutoScaleOnFirstAdd(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()

	state := policy.SetGuestCount(offering, policy.NewSelection(offering), 6)
	state = policy.IncrementAddOn(offering, state, "snorkel-kit", "")

	sel, ok := state.AddOns["snorkel-kit"]
	if !ok {
		t.Fatalf("expected snorkel-kit selected")
	}
	if sel.Quantity != 6 {
		t.Fatalf("first add must seed quantity with effective guest count 6, got %d", sel.Quantity)
	}

	state = policy.IncrementAddOn(offering, state, "snorkel-kit", "")
	if state.AddOns["snorkel-kit"].Quantity != 7 {
		t.Fatalf("subsequent increments add 1, got %d", state.AddOns["snorkel-kit"].Quantity)
	}
}

func TestSelectionPolicy_DecrementRemovesAtZero(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()

	state := policy.NewSelection(offering)
	state = policy.IncrementAddOn(offering, state, "cooler-pack", "")
	if state.AddOns["cooler-pack"].Quantity != 1 {
		t.Fatalf("expected quantity 1 at one guest, got %d", state.AddOns["cooler-pack"].Quantity)
	}

	state = policy.DecrementAddOn(offering, state, "cooler-pack")
	if _, present := state.AddOns["cooler-pack"]; present {
		t.Fatalf("quantity zero must remove the entry entirely")
	}

	// Decrementing an absent add-on stays a no-op.
	state = policy.DecrementAddOn(offering, state, "cooler-pack")
	if len(state.AddOns) != 0 {
		t.Fatalf("expected empty add-on map, got %+v", state.AddOns)
	}
}

func TestSelectionPolicy_IncrementWithVariant(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()

	state := policy.IncrementAddOn(offering, policy.NewSelection(offering), "crew-tee", "L")
	sel := state.AddOns["crew-tee"]
	if sel.Variant != "L" {
		t.Fatalf("expected variant L stored, got %q", sel.Variant)
	}

	// An unknown variant is discarded, keeping the quantity change.
	state = policy.IncrementAddOn(offering, policy.NewSelection(offering), "crew-tee", "XXL")
	if state.AddOns["crew-tee"].Variant != "" {
		t.Fatalf("unknown variant must not be stored, got %q", state.AddOns["crew-tee"].Variant)
	}
}

func TestSelectionPolicy_UnknownIDsIgnored(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()
	state := policy.NewSelection(offering)

	state = policy.IncrementAddOn(offering, state, "no-such-addon", "")
	if len(state.AddOns) != 0 {
		t.Fatalf("unknown add-on must be ignored, got %+v", state.AddOns)
	}

	state = policy.ToggleActivity(offering, state, "no-such-activity")
	if len(state.Activities) != 0 {
		t.Fatalf("unknown activity must be ignored, got %+v", state.Activities)
	}
}

func TestSelectionPolicy_ToggleActivityAndPace(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()

	state := policy.NewSelection(offering)
	pace := policy.EstimatePace(offering, state)
	if pace.TotalMinutes != 0 || pace.Label != domain.PaceRelaxed {
		t.Fatalf("empty itinerary should be relaxed, got %+v", pace)
	}

	state = policy.ToggleActivity(offering, state, "snorkeling")
	state = policy.ToggleActivity(offering, state, "sandbar-stop")
	pace = policy.EstimatePace(offering, state)
	if pace.TotalMinutes != 105 || pace.Label != domain.PaceBalanced {
		t.Fatalf("expected 105 balanced minutes, got %+v", pace)
	}

	state = policy.ToggleActivity(offering, state, "snorkeling")
	pace = policy.EstimatePace(offering, state)
	if pace.TotalMinutes != 45 || pace.Label != domain.PaceRelaxed {
		t.Fatalf("expected 45 relaxed minutes after toggle off, got %+v", pace)
	}
}

func TestSelectionPolicy_MutatorsDoNotAliasInput(t *testing.T) {
	policy := NewSelectionPolicy()
	offering := reefRunnerOffering()

	original := policy.NewSelection(offering)
	_ = policy.IncrementAddOn(offering, original, "cooler-pack", "")
	if len(original.AddOns) != 0 {
		t.Fatalf("input state must not be mutated, got %+v", original.AddOns)
	}
}
