package services

import (
	"context"

	domain "github.com/saltline-charters/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	DurationChoice     = domain.DurationChoice
	CharterOffering    = domain.CharterOffering
	AddOnDefinition    = domain.AddOnDefinition
	ActivityDefinition = domain.ActivityDefinition
	AddOnSelection     = domain.AddOnSelection
	SelectionState     = domain.SelectionState
	PriceBreakdown     = domain.PriceBreakdown
	AddOnLine          = domain.AddOnLine
	ExcludedAddOn      = domain.ExcludedAddOn
	PaceEstimate       = domain.PaceEstimate
	CartLineItem       = domain.CartLineItem
	Cart               = domain.Cart
	Review             = domain.Review
	ReviewStatus       = domain.ReviewStatus
	ContentPage        = domain.ContentPage
	ForecastSnapshot   = domain.ForecastSnapshot
	ComfortReport      = domain.ComfortReport
	SystemHealthReport = domain.SystemHealthReport
)

// CatalogService loads and validates published charter offerings.
type CatalogService interface {
	GetOffering(ctx context.Context, slug string) (CharterOffering, error)
	ListOfferings(ctx context.Context, filter OfferingListCommand) (domain.CursorPage[CharterOffering], error)
	UpsertOffering(ctx context.Context, offering CharterOffering) (CharterOffering, error)
	DeleteOffering(ctx context.Context, slug string) error
}

// SelectionPolicy owns every transition of a booking selection. All mutators
// return a new selection; callers keep the returned value as current state.
type SelectionPolicy interface {
	NewSelection(offering CharterOffering) SelectionState
	SetDurationChoice(offering CharterOffering, state SelectionState, choice DurationChoice) SelectionState
	SetGuestCount(offering CharterOffering, state SelectionState, count int) SelectionState
	SetLargeGroup(offering CharterOffering, state SelectionState, largeGroup bool) SelectionState
	ToggleActivity(offering CharterOffering, state SelectionState, activityID string) SelectionState
	IncrementAddOn(offering CharterOffering, state SelectionState, addOnID string, variant string) SelectionState
	DecrementAddOn(offering CharterOffering, state SelectionState, addOnID string) SelectionState
	SetAddOnVariant(offering CharterOffering, state SelectionState, addOnID string, variant string) SelectionState
	EstimatePace(offering CharterOffering, state SelectionState) PaceEstimate
}

// CartService manages persisted cart state for a booking session.
type CartService interface {
	GetOrCreateCart(ctx context.Context, sessionID string) (Cart, error)
	Reconcile(ctx context.Context, cmd ReconcileCartCommand) (Cart, error)
	RemoveLine(ctx context.Context, cmd RemoveCartLineCommand) (Cart, error)
	SetLineQuantity(ctx context.Context, cmd SetCartLineQuantityCommand) (Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// BookingService gates inline checkout for composed selections.
type BookingService interface {
	AttemptInlineCheckout(ctx context.Context, cmd CheckoutAttemptCommand) (CheckoutAttemptResult, error)
}

// ContentService serves CMS-managed marketing pages.
type ContentService interface {
	GetPage(ctx context.Context, slug string, locale string) (ContentPage, error)
	ListPages(ctx context.Context, cmd ContentPageListCommand) (domain.CursorPage[ContentPage], error)
	UpsertPage(ctx context.Context, page ContentPage) (ContentPage, error)
	DeletePage(ctx context.Context, pageID string) error
}

// ReviewService runs the guest review moderation queue.
type ReviewService interface {
	SubmitReview(ctx context.Context, cmd SubmitReviewCommand) (Review, error)
	ListReviews(ctx context.Context, cmd ReviewListCommand) (domain.CursorPage[Review], error)
	ModerateReview(ctx context.Context, cmd ModerateReviewCommand) (Review, error)
}

// WeatherService surfaces cached marine forecasts graded for charter comfort.
type WeatherService interface {
	ComfortReport(ctx context.Context, day string) (ComfortReport, error)
}

// SystemService aggregates dependency health for readiness endpoints.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// ForecastProvider fetches a marine forecast for a day key (YYYY-MM-DD).
type ForecastProvider interface {
	Forecast(ctx context.Context, day string) (ForecastSnapshot, error)
}

// ConciergeNotifier opens a human contact channel when inline checkout is
// gated. Implementations decide the transport; the engine only supplies the
// reason and offering.
type ConciergeNotifier interface {
	NotifyConcierge(ctx context.Context, req ConciergeRequest) error
}

// ErrorTranslator lets HTTP layers map service errors onto transport envelopes.
type ErrorTranslator interface {
	Translate(err error) (status int, code string, message string)
}

// Command/result DTOs --------------------------------------------------------

type OfferingListCommand struct {
	OnlyPublished bool
	Pagination    Pagination
}

type ReconcileCartCommand struct {
	SessionID string
	Offering  CharterOffering
	Selection SelectionState
}

type RemoveCartLineCommand struct {
	SessionID string
	Identity  string
}

type SetCartLineQuantityCommand struct {
	SessionID string
	Identity  string
	Quantity  int
}

type CheckoutAttemptCommand struct {
	SessionID string
	Offering  CharterOffering
	Selection SelectionState
}

// CheckoutOutcome distinguishes an accepted inline checkout from a concierge
// hand-off. The hand-off is an expected result, not an error.
type CheckoutOutcome string

const (
	CheckoutOutcomeAccepted  CheckoutOutcome = "accepted"
	CheckoutOutcomeConcierge CheckoutOutcome = "concierge_required"
)

// CheckoutGateReason names why inline checkout was refused.
type CheckoutGateReason string

const (
	// GateReasonLargeGroup marks selections flagged as exceeding the boat's
	// guest capacity; those bookings are arranged by a human.
	GateReasonLargeGroup CheckoutGateReason = "large_group_requires_concierge"
)

type CheckoutAttemptResult struct {
	Outcome    CheckoutOutcome
	GateReason CheckoutGateReason
	Cart       Cart
	Breakdown  PriceBreakdown
	Pace       PaceEstimate
}

type ConciergeRequest struct {
	SessionID    string
	OfferingSlug string
	GuestCount   int
	Reason       CheckoutGateReason
}

type ContentPageListCommand struct {
	Locale        *string
	OnlyPublished bool
	Pagination    Pagination
}

type SubmitReviewCommand struct {
	OfferingSlug string
	AuthorName   string
	Rating       int
	Comment      string
}

type ReviewListCommand struct {
	OfferingSlug *string
	Status       []ReviewStatus
	Pagination   Pagination
}

type ModerateReviewCommand struct {
	ReviewID    string
	Approve     bool
	ModeratedBy string
}
