package handlers

import (
	"fmt"
	"strings"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/services"
)

// selectionRequest is the wire form of an in-progress booking configuration.
// Quote, cart reconcile, and checkout attempt all accept the same shape.
type selectionRequest struct {
	Duration   string                           `json:"duration"`
	GuestCount int                              `json:"guest_count"`
	LargeGroup bool                             `json:"large_group"`
	Activities []string                         `json:"activities"`
	AddOns     map[string]addOnSelectionRequest `json:"add_ons"`
}

type addOnSelectionRequest struct {
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant"`
}

func buildSelectionState(offering services.CharterOffering, req selectionRequest) (services.SelectionState, error) {
	state := domain.NewSelectionState(offering.Slug)

	switch strings.ToLower(strings.TrimSpace(req.Duration)) {
	case "", string(domain.DurationHalfDay):
		state.Duration = domain.DurationHalfDay
	case string(domain.DurationFullDay):
		// A full-day request against a half-day-only offering falls back to
		// half rather than erroring, same as the selection policy transition.
		state.Duration = domain.DurationHalfDay
		if offering.SupportsFullDay() {
			state.Duration = domain.DurationFullDay
		}
	default:
		return services.SelectionState{}, fmt.Errorf("unknown duration %q", req.Duration)
	}

	if req.GuestCount < 0 {
		return services.SelectionState{}, fmt.Errorf("guest_count must not be negative")
	}
	if req.GuestCount > 0 {
		state.GuestCount = req.GuestCount
	}
	state.LargeGroup = req.LargeGroup

	for _, activityID := range req.Activities {
		id := strings.TrimSpace(activityID)
		if id == "" {
			continue
		}
		state.Activities[id] = struct{}{}
	}

	for addOnID, sel := range req.AddOns {
		id := strings.TrimSpace(addOnID)
		if id == "" || sel.Quantity <= 0 {
			continue
		}
		state.AddOns[id] = domain.AddOnSelection{
			Quantity: sel.Quantity,
			Variant:  strings.TrimSpace(sel.Variant),
		}
	}

	return state, nil
}

type priceBreakdownPayload struct {
	Currency            string                 `json:"currency"`
	BasePrice           int64                  `json:"base_price"`
	EffectiveGuestCount int                    `json:"effective_guest_count"`
	OverageGuestCount   int                    `json:"overage_guest_count"`
	OverageCost         int64                  `json:"overage_cost"`
	AddOns              []addOnLinePayload     `json:"add_ons"`
	Excluded            []excludedAddOnPayload `json:"excluded,omitempty"`
	Total               int64                  `json:"total"`
}

type addOnLinePayload struct {
	AddOnID   string `json:"add_on_id"`
	Variant   string `json:"variant,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type excludedAddOnPayload struct {
	AddOnID string `json:"add_on_id"`
	Reason  string `json:"reason"`
}

type paceEstimatePayload struct {
	TotalMinutes int    `json:"total_minutes"`
	Label        string `json:"label"`
}

func buildPriceBreakdownPayload(breakdown services.PriceBreakdown) priceBreakdownPayload {
	lines := make([]addOnLinePayload, 0, len(breakdown.AddOnLines))
	for _, line := range breakdown.AddOnLines {
		lines = append(lines, addOnLinePayload{
			AddOnID:   line.AddOnID,
			Variant:   line.Variant,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal,
		})
	}

	excluded := make([]excludedAddOnPayload, 0, len(breakdown.Excluded))
	for _, row := range breakdown.Excluded {
		excluded = append(excluded, excludedAddOnPayload{
			AddOnID: row.AddOnID,
			Reason:  string(row.Reason),
		})
	}

	return priceBreakdownPayload{
		Currency:            breakdown.Currency,
		BasePrice:           breakdown.BasePrice,
		EffectiveGuestCount: breakdown.EffectiveGuestCount,
		OverageGuestCount:   breakdown.OverageGuestCount,
		OverageCost:         breakdown.OverageCost,
		AddOns:              lines,
		Excluded:            excluded,
		Total:               breakdown.Total,
	}
}

func buildPaceEstimatePayload(pace services.PaceEstimate) paceEstimatePayload {
	return paceEstimatePayload{
		TotalMinutes: pace.TotalMinutes,
		Label:        string(pace.Label),
	}
}

type cartPayload struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Currency  string            `json:"currency"`
	Lines     []cartLinePayload `json:"lines"`
	Total     int64             `json:"total"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

type cartLinePayload struct {
	Identity    string            `json:"identity"`
	DisplayName string            `json:"display_name"`
	UnitPrice   int64             `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	LineTotal   int64             `json:"line_total"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func buildCartPayload(cart services.Cart) cartPayload {
	lines := make([]cartLinePayload, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLinePayload{
			Identity:    line.Identity,
			DisplayName: line.DisplayName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal(),
			Metadata:    cloneStringMap(line.Metadata),
		})
	}

	return cartPayload{
		ID:        cart.ID,
		SessionID: cart.SessionID,
		Currency:  cart.Currency,
		Lines:     lines,
		Total:     cart.Total(),
		CreatedAt: formatTime(cart.CreatedAt),
		UpdatedAt: formatTime(cart.UpdatedAt),
	}
}
