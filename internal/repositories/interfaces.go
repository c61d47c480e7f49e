package repositories

import (
	"context"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Offerings() OfferingRepository
	Carts() CartRepository
	Reviews() ReviewRepository
	Content() ContentRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OfferingRepository stores charter offerings keyed by slug. Offerings are
// authored out of band and read-heavy; writes exist for the admin surface.
type OfferingRepository interface {
	GetBySlug(ctx context.Context, slug string) (domain.CharterOffering, error)
	List(ctx context.Context, filter OfferingListFilter) (domain.CursorPage[domain.CharterOffering], error)
	Upsert(ctx context.Context, offering domain.CharterOffering) (domain.CharterOffering, error)
	Delete(ctx context.Context, slug string) error
}

// CartRepository owns cart persistence keyed by booking session.
type CartRepository interface {
	GetBySession(ctx context.Context, sessionID string) (domain.Cart, error)
	Upsert(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	Delete(ctx context.Context, sessionID string) error
}

// ReviewRepository stores guest reviews and their moderation meta.
type ReviewRepository interface {
	Insert(ctx context.Context, review domain.Review) (domain.Review, error)
	FindByID(ctx context.Context, reviewID string) (domain.Review, error)
	List(ctx context.Context, filter ReviewListFilter) (domain.CursorPage[domain.Review], error)
	UpdateStatus(ctx context.Context, reviewID string, status domain.ReviewStatus, update ReviewModerationUpdate) (domain.Review, error)
}

// ContentRepository stores CMS-managed marketing pages.
type ContentRepository interface {
	GetPage(ctx context.Context, slug string, locale string) (domain.ContentPage, error)
	ListPages(ctx context.Context, filter ContentPageFilter) (domain.CursorPage[domain.ContentPage], error)
	UpsertPage(ctx context.Context, page domain.ContentPage) (domain.ContentPage, error)
	DeletePage(ctx context.Context, pageID string) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type OfferingListFilter struct {
	OnlyPublished bool
	Pagination    domain.Pagination
}

type ReviewListFilter struct {
	OfferingSlug *string
	Status       []domain.ReviewStatus
	Pagination   domain.Pagination
}

type ContentPageFilter struct {
	Locale        *string
	OnlyPublished bool
	Pagination    domain.Pagination
}

// ReviewModerationUpdate carries moderation metadata for status transitions.
type ReviewModerationUpdate struct {
	ModeratedBy string
	ModeratedAt time.Time
}
