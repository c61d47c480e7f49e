package domain

import (
	"strings"
	"time"
)

// DurationChoice enumerates the bookable trip lengths for an offering.
type DurationChoice string

const (
	// DurationHalfDay is the half-day trip option every offering prices.
	DurationHalfDay DurationChoice = "half"
	// DurationFullDay is the full-day trip option; not every offering supports it.
	DurationFullDay DurationChoice = "full"
)

// ActivityDefinition describes an on-the-water activity included in an offering.
// Activities shape the itinerary pace estimate and never contribute to price.
type ActivityDefinition struct {
	ID              string
	Title           string
	DurationMinutes int
}

// AddOnDefinition describes a bookable extra owned by the offering catalog.
// Definitions are immutable once published; selections reference them by ID.
type AddOnDefinition struct {
	ID             string
	Title          string
	Pricing        AddOnPricingPolicy
	VariantOptions []string
}

// HasVariant reports whether the given variant is one of the definition's options.
func (d AddOnDefinition) HasVariant(variant string) bool {
	target := strings.TrimSpace(variant)
	if target == "" {
		return false
	}
	for _, option := range d.VariantOptions {
		if strings.EqualFold(strings.TrimSpace(option), target) {
			return true
		}
	}
	return false
}

// CharterOffering is the priced charter product being configured. Created once
// from static catalog data; read-only for the pricing engine.
type CharterOffering struct {
	Slug           string
	Title          string
	Summary        string
	Currency       string
	HalfDayPrice   int64
	FullDayPrice   *int64
	IncludedGuests int
	MaxGuests      int
	ExtraGuestFee  int64
	AddOns         []AddOnDefinition
	Activities     []ActivityDefinition
	IsPublished    bool
	UpdatedAt      time.Time
}

// BasePrice returns the base charter price for the duration, and whether the
// offering supports that duration at all.
func (o CharterOffering) BasePrice(choice DurationChoice) (int64, bool) {
	switch choice {
	case DurationHalfDay:
		return o.HalfDayPrice, true
	case DurationFullDay:
		if o.FullDayPrice == nil {
			return 0, false
		}
		return *o.FullDayPrice, true
	}
	return 0, false
}

// SupportsFullDay reports whether the offering prices a full-day trip.
func (o CharterOffering) SupportsFullDay() bool {
	return o.FullDayPrice != nil
}

// AddOn resolves an add-on definition by ID.
func (o CharterOffering) AddOn(addOnID string) (AddOnDefinition, bool) {
	target := strings.TrimSpace(addOnID)
	for _, def := range o.AddOns {
		if strings.EqualFold(def.ID, target) {
			return def, true
		}
	}
	return AddOnDefinition{}, false
}

// Activity resolves an activity definition by ID.
func (o CharterOffering) Activity(activityID string) (ActivityDefinition, bool) {
	target := strings.TrimSpace(activityID)
	for _, def := range o.Activities {
		if strings.EqualFold(def.ID, target) {
			return def, true
		}
	}
	return ActivityDefinition{}, false
}

// AddOnSelection holds the quantity and optional variant chosen for an add-on.
// A selection with quantity 0 is never stored; absence means unselected.
type AddOnSelection struct {
	Quantity int
	Variant  string
}

// SelectionState captures one in-progress booking configuration. It is the
// single source of truth: the price breakdown and cart lines are both derived
// from it and never stored independently.
type SelectionState struct {
	OfferingSlug string
	Duration     DurationChoice
	GuestCount   int
	LargeGroup   bool
	Activities   map[string]struct{}
	AddOns       map[string]AddOnSelection
}

// NewSelectionState returns a selection with sane zero values for an offering.
func NewSelectionState(offeringSlug string) SelectionState {
	return SelectionState{
		OfferingSlug: strings.TrimSpace(offeringSlug),
		Duration:     DurationHalfDay,
		GuestCount:   1,
		Activities:   map[string]struct{}{},
		AddOns:       map[string]AddOnSelection{},
	}
}

// Clone returns a deep copy so derived computations never alias caller state.
func (s SelectionState) Clone() SelectionState {
	dup := s
	dup.Activities = make(map[string]struct{}, len(s.Activities))
	for id := range s.Activities {
		dup.Activities[id] = struct{}{}
	}
	dup.AddOns = make(map[string]AddOnSelection, len(s.AddOns))
	for id, sel := range s.AddOns {
		dup.AddOns[id] = sel
	}
	return dup
}

// PaceLabel buckets the total selected activity minutes into a qualitative
// itinerary description for presentation.
type PaceLabel string

const (
	// PaceRelaxed indicates plenty of open water time between activities.
	PaceRelaxed PaceLabel = "relaxed"
	// PaceBalanced indicates a comfortably full itinerary.
	PaceBalanced PaceLabel = "balanced"
	// PacePacked indicates a back-to-back schedule.
	PacePacked PaceLabel = "packed"
)

// PaceEstimate summarises the selected activities for confirmation messaging.
type PaceEstimate struct {
	TotalMinutes int
	Label        PaceLabel
}

// CartLineItem is one priced entry destined for the checkout cart. The cart
// store owns lines once composed; the engine only produces candidates.
type CartLineItem struct {
	Identity    string
	DisplayName string
	UnitPrice   int64
	Quantity    int
	Metadata    map[string]string
}

// LineTotal returns the line's contribution to the cart total.
func (l CartLineItem) LineTotal() int64 {
	if l.Quantity <= 0 {
		return 0
	}
	return l.UnitPrice * int64(l.Quantity)
}

// Cart aggregates the composed line items for one booking session.
type Cart struct {
	ID        string
	SessionID string
	Currency  string
	Lines     []CartLineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total sums unitPrice x quantity over all lines.
func (c Cart) Total() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.LineTotal()
	}
	return total
}

// ReviewStatus indicates the moderation state of a guest review.
type ReviewStatus string

const (
	// ReviewStatusPending indicates the review awaits moderation.
	ReviewStatusPending ReviewStatus = "pending"
	// ReviewStatusApproved indicates the review is visible on the site.
	ReviewStatusApproved ReviewStatus = "approved"
	// ReviewStatusRejected indicates the review is hidden.
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Review captures guest-submitted feedback held in the moderation queue.
type Review struct {
	ID           string
	OfferingSlug string
	AuthorName   string
	Rating       int
	Comment      string
	Status       ReviewStatus
	ModeratedBy  *string
	ModeratedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ContentPage describes marketing copy managed outside the engine.
type ContentPage struct {
	ID        string
	Slug      string
	Locale    string
	Title     string
	Body      string
	HeroImage string
	Status    string
	UpdatedAt time.Time
}

// ForecastSnapshot is one day's marine forecast as fetched from the provider.
type ForecastSnapshot struct {
	Day         string
	WindKnots   float64
	GustKnots   float64
	WaveHeightM float64
	AirTempC    float64
	WaterTempC  float64
	Summary     string
	RetrievedAt time.Time
}

// ComfortLabel grades a forecast for charter comfort.
type ComfortLabel string

const (
	// ComfortIdeal indicates calm conditions suited to every activity.
	ComfortIdeal ComfortLabel = "ideal"
	// ComfortFair indicates workable conditions with some chop.
	ComfortFair ComfortLabel = "fair"
	// ComfortRough indicates conditions where guests should reschedule.
	ComfortRough ComfortLabel = "rough"
)

// ComfortReport summarises a forecast snapshot for the booking page.
type ComfortReport struct {
	Label       ComfortLabel
	Score       int
	Snapshot    ForecastSnapshot
	GeneratedAt time.Time
}

// Health statuses reported by dependency probes.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
	HealthStatusError    = "error"
)

// SystemHealthCheck records the outcome of a single dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}
