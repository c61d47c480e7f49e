package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	domain "github.com/saltline-charters/api/internal/domain"
)

// Cart line identity prefixes. Identities are stable across recomposition so
// reconciliation can match lines from an earlier selection.
const (
	cartLinePrefixTour     = "tour"
	cartLinePrefixActivity = "activity"
	cartLinePrefixAddOn    = "addon"
)

// CartComposer turns an offering, a selection, and its breakdown into the
// cart lines checkout expects. Composition is pure; persistence belongs to
// the cart service.
type CartComposer struct{}

func NewCartComposer() *CartComposer {
	return &CartComposer{}
}

// ComposeCartLines emits the full replacement line set for a selection:
//
//   - one tour line carrying the base price plus any guest overage,
//   - one zero-price line per selected activity so the itinerary is visible
//     on the order summary without affecting the total,
//   - one line per priced (add-on, variant) pair with its explicit quantity.
//
// Excluded add-ons produce no line; the breakdown already names them so the
// UI can prompt for the missing variant.
func (c *CartComposer) ComposeCartLines(offering CharterOffering, selection SelectionState, breakdown PriceBreakdown) []CartLineItem {
	lines := make([]CartLineItem, 0, 1+len(selection.Activities)+len(breakdown.AddOnLines))

	lines = append(lines, CartLineItem{
		Identity:    tourLineIdentity(offering.Slug),
		DisplayName: tourDisplayName(offering, selection.Duration),
		UnitPrice:   breakdown.BasePrice + breakdown.OverageCost,
		Quantity:    1,
		Metadata: map[string]string{
			"duration":      string(selection.Duration),
			"guests":        strconv.Itoa(breakdown.EffectiveGuestCount),
			"overageGuests": strconv.Itoa(breakdown.OverageGuestCount),
			"overageCost":   strconv.FormatInt(breakdown.OverageCost, 10),
		},
	})

	for _, activityID := range sortedActivityIDs(selection.Activities) {
		def, ok := offering.Activity(activityID)
		if !ok {
			continue
		}
		lines = append(lines, CartLineItem{
			Identity:    activityLineIdentity(def.ID),
			DisplayName: def.Title,
			UnitPrice:   0,
			Quantity:    1,
			Metadata: map[string]string{
				"durationMinutes": strconv.Itoa(def.DurationMinutes),
			},
		})
	}

	for _, line := range breakdown.AddOnLines {
		display := line.AddOnID
		variant := strings.TrimSpace(line.Variant)
		if def, ok := offering.AddOn(line.AddOnID); ok {
			display = def.Title
			variant = canonicalVariant(def, variant)
			if variant != "" {
				display = fmt.Sprintf("%s (%s)", def.Title, variant)
			}
		}
		item := CartLineItem{
			Identity:    addOnLineIdentity(line.AddOnID, variant),
			DisplayName: display,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		}
		if variant != "" {
			item.Metadata = map[string]string{"variant": variant}
		}
		lines = append(lines, item)
	}

	return lines
}

// ReconcileLines merges a composed line set into an existing cart's lines:
// lines whose identity matches are replaced with the new quantity and price,
// new identities are appended, and stale identities owned by this offering's
// composition are removed. Lines with a foreign identity prefix survive
// untouched.
func (c *CartComposer) ReconcileLines(existing []CartLineItem, composed []CartLineItem) []CartLineItem {
	composedByIdentity := make(map[string]CartLineItem, len(composed))
	order := make([]string, 0, len(composed))
	for _, line := range composed {
		if _, seen := composedByIdentity[line.Identity]; !seen {
			order = append(order, line.Identity)
		}
		composedByIdentity[line.Identity] = line
	}

	result := make([]CartLineItem, 0, len(existing)+len(composed))
	consumed := make(map[string]bool, len(composed))

	for _, line := range existing {
		if replacement, ok := composedByIdentity[line.Identity]; ok {
			result = append(result, replacement)
			consumed[line.Identity] = true
			continue
		}
		if isComposedIdentity(line.Identity) {
			continue
		}
		result = append(result, line)
	}

	for _, identity := range order {
		if !consumed[identity] {
			result = append(result, composedByIdentity[identity])
		}
	}

	return result
}

func tourLineIdentity(slug string) string {
	return cartLinePrefixTour + ":" + strings.TrimSpace(slug)
}

func activityLineIdentity(activityID string) string {
	return cartLinePrefixActivity + ":" + strings.TrimSpace(activityID)
}

// addOnLineIdentity keeps the variant segment in the catalog's own casing so
// persisted identities read the way the option is published.
func addOnLineIdentity(addOnID string, variant string) string {
	identity := cartLinePrefixAddOn + ":" + strings.TrimSpace(addOnID)
	if trimmed := strings.TrimSpace(variant); trimmed != "" {
		identity += ":" + trimmed
	}
	return identity
}

// canonicalVariant resolves a selected variant to the catalog option it
// matched, preserving the option's published casing.
func canonicalVariant(def AddOnDefinition, variant string) string {
	if variant == "" {
		return ""
	}
	for _, option := range def.VariantOptions {
		if strings.EqualFold(strings.TrimSpace(option), variant) {
			return strings.TrimSpace(option)
		}
	}
	return variant
}

func isComposedIdentity(identity string) bool {
	for _, prefix := range []string{cartLinePrefixTour, cartLinePrefixActivity, cartLinePrefixAddOn} {
		if strings.HasPrefix(identity, prefix+":") {
			return true
		}
	}
	return false
}

func tourDisplayName(offering CharterOffering, choice DurationChoice) string {
	switch choice {
	case domain.DurationFullDay:
		return offering.Title + " (full day)"
	default:
		return offering.Title + " (half day)"
	}
}

func sortedActivityIDs(activities map[string]struct{}) []string {
	ids := make([]string, 0, len(activities))
	for id := range activities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
