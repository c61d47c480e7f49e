package domain

// AddOnPricingKind tags the pricing policy variants an add-on may carry.
type AddOnPricingKind string

const (
	// AddOnPricingFlat prices a unit independently of guest count.
	AddOnPricingFlat AddOnPricingKind = "flat"
	// AddOnPricingPerGuest prices a unit per guest; the selection quantity
	// already encodes guest scaling, so the unit price is applied as-is.
	AddOnPricingPerGuest AddOnPricingKind = "per_guest"
	// AddOnPricingTieredPerGuest prices a base amount covering a number of
	// included guests; guests beyond that are billed through the offering's
	// overage mechanism, not the add-on.
	AddOnPricingTieredPerGuest AddOnPricingKind = "tiered_per_guest"
	// AddOnPricingMerchUnit prices flat per unit but requires a variant
	// selection (e.g. a size) before the line is orderable.
	AddOnPricingMerchUnit AddOnPricingKind = "merch_unit"
)

// AddOnPricingPolicy is the tagged pricing variant for an add-on definition.
// Only the fields relevant to Kind are populated; use the constructors.
type AddOnPricingPolicy struct {
	Kind             AddOnPricingKind
	Amount           int64
	AmountPerGuest   int64
	BaseAmount       int64
	IncludedGuests   int
	VariantDimension string
}

// FlatPricing prices each unit at amount regardless of guests.
func FlatPricing(amount int64) AddOnPricingPolicy {
	return AddOnPricingPolicy{Kind: AddOnPricingFlat, Amount: amount}
}

// PerGuestPricing prices each unit at amountPerGuest.
func PerGuestPricing(amountPerGuest int64) AddOnPricingPolicy {
	return AddOnPricingPolicy{Kind: AddOnPricingPerGuest, AmountPerGuest: amountPerGuest}
}

// TieredPerGuestPricing prices a base amount covering includedGuests.
func TieredPerGuestPricing(baseAmount int64, includedGuests int) AddOnPricingPolicy {
	return AddOnPricingPolicy{Kind: AddOnPricingTieredPerGuest, BaseAmount: baseAmount, IncludedGuests: includedGuests}
}

// MerchUnitPricing prices each unit at unitAmount and requires a variant
// along the given dimension.
func MerchUnitPricing(unitAmount int64, variantDimension string) AddOnPricingPolicy {
	return AddOnPricingPolicy{Kind: AddOnPricingMerchUnit, Amount: unitAmount, VariantDimension: variantDimension}
}

// RequiresVariant reports whether the policy needs a variant before pricing.
func (p AddOnPricingPolicy) RequiresVariant() bool {
	return p.Kind == AddOnPricingMerchUnit
}

// AddOnLine is one priced add-on row within a breakdown.
type AddOnLine struct {
	AddOnID   string
	Variant   string
	UnitPrice int64
	Quantity  int
	LineTotal int64
}

// ExclusionReason explains why a selected add-on produced no priced line.
type ExclusionReason string

const (
	// ExclusionUnknownAddOn marks a selection referencing an ID absent from
	// the current catalog; stale selections must never crash pricing.
	ExclusionUnknownAddOn ExclusionReason = "unknown_add_on"
	// ExclusionMissingVariant marks a merch add-on with no variant chosen.
	ExclusionMissingVariant ExclusionReason = "missing_variant"
	// ExclusionInvalidVariant marks a merch add-on whose variant is not one
	// of the definition's options.
	ExclusionInvalidVariant ExclusionReason = "invalid_variant"
)

// ExcludedAddOn records an add-on selection omitted from the priced total so
// the presentation layer can prompt for the missing input.
type ExcludedAddOn struct {
	AddOnID string
	Reason  ExclusionReason
}

// PriceBreakdown is the derived, immutable pricing snapshot for a selection.
// A fresh value is computed on every selection change and superseded by the
// next computation; it is never mutated in place or persisted.
type PriceBreakdown struct {
	Currency            string
	BasePrice           int64
	EffectiveGuestCount int
	OverageGuestCount   int
	OverageCost         int64
	AddOnLines          []AddOnLine
	Excluded            []ExcludedAddOn
	Total               int64
}
