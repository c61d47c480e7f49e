package services

import (
	"strings"

	domain "github.com/saltline-charters/api/internal/domain"
)

// Pace buckets for the itinerary estimate, in total activity minutes.
const (
	paceRelaxedMaxMinutes  = 90
	paceBalancedMaxMinutes = 180
)

// selectionPolicy is the only code allowed to mutate a selection. Every
// transition validates against the offering and returns a fresh copy, so
// stale UI events cannot corrupt state and callers never observe an
// in-between shape.
type selectionPolicy struct{}

// NewSelectionPolicy constructs the stateless transition policy.
func NewSelectionPolicy() SelectionPolicy {
	return selectionPolicy{}
}

func (selectionPolicy) NewSelection(offering CharterOffering) SelectionState {
	return domain.NewSelectionState(offering.Slug)
}

// SetDurationChoice switches the trip length. Choosing full-day on an
// offering that only prices half-day is ignored, leaving the state unchanged.
func (selectionPolicy) SetDurationChoice(offering CharterOffering, state SelectionState, choice DurationChoice) SelectionState {
	next := state.Clone()
	switch choice {
	case domain.DurationHalfDay:
		next.Duration = domain.DurationHalfDay
	case domain.DurationFullDay:
		if !offering.SupportsFullDay() {
			return next
		}
		next.Duration = domain.DurationFullDay
	}
	return next
}

// SetGuestCount clamps the requested count into [1, maxGuests]. Counts above
// capacity clamp rather than reject; the large-group flag is the only path to
// an above-capacity booking.
func (selectionPolicy) SetGuestCount(offering CharterOffering, state SelectionState, count int) SelectionState {
	next := state.Clone()
	if count < 1 {
		count = 1
	}
	if offering.MaxGuests > 0 && count > offering.MaxGuests {
		count = offering.MaxGuests
	}
	next.GuestCount = count
	return next
}

func (selectionPolicy) SetLargeGroup(offering CharterOffering, state SelectionState, largeGroup bool) SelectionState {
	next := state.Clone()
	next.LargeGroup = largeGroup
	return next
}

// ToggleActivity flips an activity in or out of the itinerary. Unknown
// activity IDs are ignored.
func (selectionPolicy) ToggleActivity(offering CharterOffering, state SelectionState, activityID string) SelectionState {
	next := state.Clone()
	def, ok := offering.Activity(activityID)
	if !ok {
		return next
	}
	if _, selected := next.Activities[def.ID]; selected {
		delete(next.Activities, def.ID)
	} else {
		next.Activities[def.ID] = struct{}{}
	}
	return next
}

// IncrementAddOn raises an add-on quantity by one. The first increment seeds
// the quantity with the current effective guest count, not 1, so per-guest
// items default to a sensible size for the party. Later increments step by
// one. Unknown add-on IDs are ignored.
func (selectionPolicy) IncrementAddOn(offering CharterOffering, state SelectionState, addOnID string, variant string) SelectionState {
	next := state.Clone()
	def, ok := offering.AddOn(addOnID)
	if !ok {
		return next
	}

	trimmed := strings.TrimSpace(variant)
	if trimmed != "" && !def.HasVariant(trimmed) {
		trimmed = ""
	}

	sel, exists := next.AddOns[def.ID]
	if !exists {
		sel = AddOnSelection{Quantity: effectiveGuestCount(offering, next)}
	} else {
		sel.Quantity++
	}
	if trimmed != "" {
		sel.Variant = trimmed
	}
	next.AddOns[def.ID] = sel
	return next
}

// DecrementAddOn lowers an add-on quantity by one, removing the selection
// entirely once it reaches zero. Decrementing an unselected add-on is a no-op.
func (selectionPolicy) DecrementAddOn(offering CharterOffering, state SelectionState, addOnID string) SelectionState {
	next := state.Clone()
	def, ok := offering.AddOn(addOnID)
	if !ok {
		return next
	}

	sel, exists := next.AddOns[def.ID]
	if !exists {
		return next
	}

	sel.Quantity--
	if sel.Quantity <= 0 {
		delete(next.AddOns, def.ID)
		return next
	}
	next.AddOns[def.ID] = sel
	return next
}

// SetAddOnVariant records the variant choice for a selected merch add-on.
// Selecting a variant for an unselected add-on seeds it with quantity one.
func (selectionPolicy) SetAddOnVariant(offering CharterOffering, state SelectionState, addOnID string, variant string) SelectionState {
	next := state.Clone()
	def, ok := offering.AddOn(addOnID)
	if !ok || !def.Pricing.RequiresVariant() {
		return next
	}
	trimmed := strings.TrimSpace(variant)
	if trimmed != "" && !def.HasVariant(trimmed) {
		return next
	}

	sel, exists := next.AddOns[def.ID]
	if !exists {
		sel = AddOnSelection{Quantity: 1}
	}
	sel.Variant = trimmed
	next.AddOns[def.ID] = sel
	return next
}

// EstimatePace sums the selected activities' durations and buckets the total
// into a qualitative label for the itinerary preview.
func (selectionPolicy) EstimatePace(offering CharterOffering, state SelectionState) PaceEstimate {
	total := 0
	for activityID := range state.Activities {
		if def, ok := offering.Activity(activityID); ok {
			total += def.DurationMinutes
		}
	}

	label := domain.PaceRelaxed
	switch {
	case total > paceBalancedMaxMinutes:
		label = domain.PacePacked
	case total > paceRelaxedMaxMinutes:
		label = domain.PaceBalanced
	}

	return PaceEstimate{TotalMinutes: total, Label: label}
}
