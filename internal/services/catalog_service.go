package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/repositories"
)

var offeringSlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var (
	// ErrCatalogRepositoryMissing indicates the repository dependency is absent.
	ErrCatalogRepositoryMissing = errors.New("catalog service: repository is not configured")
	// ErrCatalogInvalidOffering indicates an offering fails authoring validation.
	// Prices, guest bounds, and variant lists are authored data; a violation is
	// a publishing bug, not a runtime condition to tolerate.
	ErrCatalogInvalidOffering = errors.New("catalog service: invalid offering")
	// ErrCatalogOfferingNotFound indicates the requested offering does not exist or is unpublished.
	ErrCatalogOfferingNotFound = errors.New("catalog service: offering not found")
	// ErrCatalogUnavailable indicates the catalog backend is unreachable.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Offerings repositories.OfferingRepository
	Clock     func() time.Time
	Logger    func(context.Context, string, map[string]any)
}

type catalogService struct {
	repo   repositories.OfferingRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Offerings == nil {
		return nil, fmt.Errorf("catalog service: offering repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		repo:   deps.Offerings,
		clock:  func() time.Time { return clock().UTC() },
		logger: logger,
	}, nil
}

func (s *catalogService) GetOffering(ctx context.Context, slug string) (CharterOffering, error) {
	if s.repo == nil {
		return CharterOffering{}, ErrCatalogRepositoryMissing
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return CharterOffering{}, fmt.Errorf("%w: slug required", ErrCatalogInvalidOffering)
	}
	offering, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return CharterOffering{}, s.translateRepoError(err)
	}
	if !offering.IsPublished {
		return CharterOffering{}, ErrCatalogOfferingNotFound
	}
	return offering, nil
}

func (s *catalogService) ListOfferings(ctx context.Context, cmd OfferingListCommand) (domain.CursorPage[CharterOffering], error) {
	if s.repo == nil {
		return domain.CursorPage[CharterOffering]{}, ErrCatalogRepositoryMissing
	}
	filter := repositories.OfferingListFilter{
		OnlyPublished: cmd.OnlyPublished,
		Pagination: domain.Pagination{
			PageSize:  cmd.Pagination.PageSize,
			PageToken: strings.TrimSpace(cmd.Pagination.PageToken),
		},
	}
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[CharterOffering]{}, s.translateRepoError(err)
	}
	return page, nil
}

func (s *catalogService) UpsertOffering(ctx context.Context, offering CharterOffering) (CharterOffering, error) {
	if s.repo == nil {
		return CharterOffering{}, ErrCatalogRepositoryMissing
	}

	offering.Slug = strings.ToLower(strings.TrimSpace(offering.Slug))
	offering.Title = strings.TrimSpace(offering.Title)
	offering.Currency = strings.ToUpper(strings.TrimSpace(offering.Currency))

	if err := validateOffering(offering); err != nil {
		return CharterOffering{}, err
	}

	offering.UpdatedAt = s.clock()
	saved, err := s.repo.Upsert(ctx, offering)
	if err != nil {
		return CharterOffering{}, s.translateRepoError(err)
	}

	s.logger(ctx, "catalog.offering_upserted", map[string]any{
		"slug":      saved.Slug,
		"published": saved.IsPublished,
	})
	return saved, nil
}

func (s *catalogService) DeleteOffering(ctx context.Context, slug string) error {
	if s.repo == nil {
		return ErrCatalogRepositoryMissing
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return fmt.Errorf("%w: slug required", ErrCatalogInvalidOffering)
	}
	if err := s.repo.Delete(ctx, slug); err != nil {
		return s.translateRepoError(err)
	}
	return nil
}

// validateOffering enforces the authoring invariants the pricing engine
// assumes. Negative money, inverted guest bounds, a merch add-on with no
// variant options, and duplicate IDs are all publishing errors rejected here
// so stored offerings are always priceable.
func validateOffering(offering CharterOffering) error {
	if offering.Slug == "" || !offeringSlugPattern.MatchString(offering.Slug) {
		return fmt.Errorf("%w: slug %q must be lowercase kebab-case", ErrCatalogInvalidOffering, offering.Slug)
	}
	if offering.Title == "" {
		return fmt.Errorf("%w: title required", ErrCatalogInvalidOffering)
	}
	if len(offering.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code", ErrCatalogInvalidOffering)
	}
	if offering.HalfDayPrice < 0 {
		return fmt.Errorf("%w: half-day price cannot be negative", ErrCatalogInvalidOffering)
	}
	if offering.FullDayPrice != nil && *offering.FullDayPrice < 0 {
		return fmt.Errorf("%w: full-day price cannot be negative", ErrCatalogInvalidOffering)
	}
	if offering.ExtraGuestFee < 0 {
		return fmt.Errorf("%w: extra guest fee cannot be negative", ErrCatalogInvalidOffering)
	}
	if offering.IncludedGuests < 1 {
		return fmt.Errorf("%w: included guests must be at least 1", ErrCatalogInvalidOffering)
	}
	if offering.MaxGuests < offering.IncludedGuests {
		return fmt.Errorf("%w: max guests %d below included guests %d", ErrCatalogInvalidOffering, offering.MaxGuests, offering.IncludedGuests)
	}

	seenAddOns := make(map[string]bool, len(offering.AddOns))
	for _, def := range offering.AddOns {
		id := strings.ToLower(strings.TrimSpace(def.ID))
		if id == "" {
			return fmt.Errorf("%w: add-on id required", ErrCatalogInvalidOffering)
		}
		if seenAddOns[id] {
			return fmt.Errorf("%w: duplicate add-on id %s", ErrCatalogInvalidOffering, id)
		}
		seenAddOns[id] = true
		if err := validateAddOnPricing(def); err != nil {
			return err
		}
	}

	seenActivities := make(map[string]bool, len(offering.Activities))
	for _, def := range offering.Activities {
		id := strings.ToLower(strings.TrimSpace(def.ID))
		if id == "" {
			return fmt.Errorf("%w: activity id required", ErrCatalogInvalidOffering)
		}
		if seenActivities[id] {
			return fmt.Errorf("%w: duplicate activity id %s", ErrCatalogInvalidOffering, id)
		}
		seenActivities[id] = true
		if def.DurationMinutes < 0 {
			return fmt.Errorf("%w: activity %s duration cannot be negative", ErrCatalogInvalidOffering, id)
		}
	}

	return nil
}

func validateAddOnPricing(def AddOnDefinition) error {
	switch def.Pricing.Kind {
	case domain.AddOnPricingFlat:
		if def.Pricing.Amount < 0 {
			return fmt.Errorf("%w: add-on %s amount cannot be negative", ErrCatalogInvalidOffering, def.ID)
		}
	case domain.AddOnPricingPerGuest:
		if def.Pricing.AmountPerGuest < 0 {
			return fmt.Errorf("%w: add-on %s per-guest amount cannot be negative", ErrCatalogInvalidOffering, def.ID)
		}
	case domain.AddOnPricingTieredPerGuest:
		if def.Pricing.BaseAmount < 0 {
			return fmt.Errorf("%w: add-on %s base amount cannot be negative", ErrCatalogInvalidOffering, def.ID)
		}
		if def.Pricing.IncludedGuests < 1 {
			return fmt.Errorf("%w: add-on %s tier must include at least 1 guest", ErrCatalogInvalidOffering, def.ID)
		}
	case domain.AddOnPricingMerchUnit:
		if def.Pricing.Amount < 0 {
			return fmt.Errorf("%w: add-on %s unit amount cannot be negative", ErrCatalogInvalidOffering, def.ID)
		}
		if len(def.VariantOptions) == 0 {
			return fmt.Errorf("%w: add-on %s requires variant options", ErrCatalogInvalidOffering, def.ID)
		}
	default:
		return fmt.Errorf("%w: add-on %s has unknown pricing kind %q", ErrCatalogInvalidOffering, def.ID, def.Pricing.Kind)
	}
	return nil
}

func (s *catalogService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCatalogOfferingNotFound
		case repoErr.IsUnavailable():
			return ErrCatalogUnavailable
		}
	}
	return ErrCatalogUnavailable
}
