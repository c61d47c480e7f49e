package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/saltline-charters/api/internal/domain"
	pfirestore "github.com/saltline-charters/api/internal/platform/firestore"
	"github.com/saltline-charters/api/internal/platform/pagination"
	"github.com/saltline-charters/api/internal/repositories"
)

const offeringCollection = "offerings"

// OfferingRepository persists charter offerings keyed by slug.
type OfferingRepository struct {
	base *pfirestore.BaseRepository[offeringDocument]
}

// NewOfferingRepository constructs a Firestore-backed offering repository.
func NewOfferingRepository(provider *pfirestore.Provider) (*OfferingRepository, error) {
	if provider == nil {
		return nil, errors.New("offering repository requires firestore provider")
	}
	return &OfferingRepository{
		base: pfirestore.NewBaseRepository[offeringDocument](provider, offeringCollection, nil, nil),
	}, nil
}

// GetBySlug fetches a single offering document.
func (r *OfferingRepository) GetBySlug(ctx context.Context, slug string) (domain.CharterOffering, error) {
	if r == nil || r.base == nil {
		return domain.CharterOffering{}, errors.New("offering repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(slug))
	if err != nil {
		return domain.CharterOffering{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns offerings ordered by slug with cursor paging.
func (r *OfferingRepository) List(ctx context.Context, filter repositories.OfferingListFilter) (domain.CursorPage[domain.CharterOffering], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.CharterOffering]{}, errors.New("offering repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.CharterOffering]{}, err
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.OnlyPublished {
			query = query.Where("isPublished", "==", true)
		}
		query = query.OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			query = query.StartAfter(cursor.StartAfter...)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.CharterOffering]{}, err
	}

	page := domain.CursorPage[domain.CharterOffering]{}
	for i, doc := range docs {
		if i == pageSize {
			token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []any{docs[i-1].ID}})
			if err != nil {
				return domain.CursorPage[domain.CharterOffering]{}, err
			}
			page.NextPageToken = token
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}
	return page, nil
}

// Upsert writes the offering document under its slug.
func (r *OfferingRepository) Upsert(ctx context.Context, offering domain.CharterOffering) (domain.CharterOffering, error) {
	if r == nil || r.base == nil {
		return domain.CharterOffering{}, errors.New("offering repository not initialised")
	}
	slug := strings.TrimSpace(offering.Slug)
	if slug == "" {
		return domain.CharterOffering{}, errors.New("offering repository: slug is required")
	}

	doc := newOfferingDocument(offering)
	result, err := r.base.Set(ctx, slug, doc)
	if err != nil {
		return domain.CharterOffering{}, err
	}
	saved := doc.toDomain(slug)
	saved.UpdatedAt = result.UpdateTime
	return saved, nil
}

// Delete removes the offering document.
func (r *OfferingRepository) Delete(ctx context.Context, slug string) error {
	if r == nil || r.base == nil {
		return errors.New("offering repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(slug))
	if err != nil {
		return err
	}
	// Deleting a missing offering must read as not found for the service layer.
	if _, err := ref.Get(ctx); err != nil {
		return pfirestore.WrapError("offerings.get", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("offerings.delete", err)
	}
	return nil
}

type offeringDocument struct {
	Title          string                     `firestore:"title"`
	Summary        string                     `firestore:"summary,omitempty"`
	Currency       string                     `firestore:"currency"`
	HalfDayPrice   int64                      `firestore:"halfDayPrice"`
	FullDayPrice   *int64                     `firestore:"fullDayPrice,omitempty"`
	IncludedGuests int                        `firestore:"includedGuests"`
	MaxGuests      int                        `firestore:"maxGuests"`
	ExtraGuestFee  int64                      `firestore:"extraGuestFee"`
	AddOns         []offeringAddOnDocument    `firestore:"addOns,omitempty"`
	Activities     []offeringActivityDocument `firestore:"activities,omitempty"`
	IsPublished    bool                       `firestore:"isPublished"`
	UpdatedAt      time.Time                  `firestore:"updatedAt"`
}

type offeringAddOnDocument struct {
	ID               string   `firestore:"id"`
	Title            string   `firestore:"title"`
	PricingKind      string   `firestore:"pricingKind"`
	Amount           int64    `firestore:"amount,omitempty"`
	AmountPerGuest   int64    `firestore:"amountPerGuest,omitempty"`
	BaseAmount       int64    `firestore:"baseAmount,omitempty"`
	IncludedGuests   int      `firestore:"includedGuests,omitempty"`
	VariantDimension string   `firestore:"variantDimension,omitempty"`
	VariantOptions   []string `firestore:"variantOptions,omitempty"`
}

type offeringActivityDocument struct {
	ID              string `firestore:"id"`
	Title           string `firestore:"title"`
	DurationMinutes int    `firestore:"durationMinutes"`
}

func newOfferingDocument(offering domain.CharterOffering) offeringDocument {
	doc := offeringDocument{
		Title:          strings.TrimSpace(offering.Title),
		Summary:        strings.TrimSpace(offering.Summary),
		Currency:       strings.ToUpper(strings.TrimSpace(offering.Currency)),
		HalfDayPrice:   offering.HalfDayPrice,
		FullDayPrice:   offering.FullDayPrice,
		IncludedGuests: offering.IncludedGuests,
		MaxGuests:      offering.MaxGuests,
		ExtraGuestFee:  offering.ExtraGuestFee,
		IsPublished:    offering.IsPublished,
		UpdatedAt:      offering.UpdatedAt.UTC(),
	}
	for _, addOn := range offering.AddOns {
		doc.AddOns = append(doc.AddOns, offeringAddOnDocument{
			ID:               addOn.ID,
			Title:            addOn.Title,
			PricingKind:      string(addOn.Pricing.Kind),
			Amount:           addOn.Pricing.Amount,
			AmountPerGuest:   addOn.Pricing.AmountPerGuest,
			BaseAmount:       addOn.Pricing.BaseAmount,
			IncludedGuests:   addOn.Pricing.IncludedGuests,
			VariantDimension: addOn.Pricing.VariantDimension,
			VariantOptions:   append([]string(nil), addOn.VariantOptions...),
		})
	}
	for _, activity := range offering.Activities {
		doc.Activities = append(doc.Activities, offeringActivityDocument{
			ID:              activity.ID,
			Title:           activity.Title,
			DurationMinutes: activity.DurationMinutes,
		})
	}
	return doc
}

func (d offeringDocument) toDomain(slug string) domain.CharterOffering {
	offering := domain.CharterOffering{
		Slug:           slug,
		Title:          d.Title,
		Summary:        d.Summary,
		Currency:       d.Currency,
		HalfDayPrice:   d.HalfDayPrice,
		FullDayPrice:   d.FullDayPrice,
		IncludedGuests: d.IncludedGuests,
		MaxGuests:      d.MaxGuests,
		ExtraGuestFee:  d.ExtraGuestFee,
		IsPublished:    d.IsPublished,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, addOn := range d.AddOns {
		offering.AddOns = append(offering.AddOns, domain.AddOnDefinition{
			ID:    addOn.ID,
			Title: addOn.Title,
			Pricing: domain.AddOnPricingPolicy{
				Kind:             domain.AddOnPricingKind(addOn.PricingKind),
				Amount:           addOn.Amount,
				AmountPerGuest:   addOn.AmountPerGuest,
				BaseAmount:       addOn.BaseAmount,
				IncludedGuests:   addOn.IncludedGuests,
				VariantDimension: addOn.VariantDimension,
			},
			VariantOptions: append([]string(nil), addOn.VariantOptions...),
		})
	}
	for _, activity := range d.Activities {
		offering.Activities = append(offering.Activities, domain.ActivityDefinition{
			ID:              activity.ID,
			Title:           activity.Title,
			DurationMinutes: activity.DurationMinutes,
		})
	}
	return offering
}
