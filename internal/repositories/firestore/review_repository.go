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

const reviewCollection = "reviews"

// ReviewRepository persists guest reviews and their moderation metadata.
type ReviewRepository struct {
	base *pfirestore.BaseRepository[reviewDocument]
}

// NewReviewRepository constructs a Firestore-backed review repository.
func NewReviewRepository(provider *pfirestore.Provider) (*ReviewRepository, error) {
	if provider == nil {
		return nil, errors.New("review repository requires firestore provider")
	}
	return &ReviewRepository{
		base: pfirestore.NewBaseRepository[reviewDocument](provider, reviewCollection, nil, nil),
	}, nil
}

// Insert stores a new review document keyed by its generated ID.
func (r *ReviewRepository) Insert(ctx context.Context, review domain.Review) (domain.Review, error) {
	if r == nil || r.base == nil {
		return domain.Review{}, errors.New("review repository not initialised")
	}
	reviewID := strings.TrimSpace(review.ID)
	if reviewID == "" {
		return domain.Review{}, errors.New("review repository: review id is required")
	}

	doc := newReviewDocument(review)
	if _, err := r.base.Set(ctx, reviewID, doc); err != nil {
		return domain.Review{}, err
	}
	return doc.toDomain(reviewID), nil
}

// FindByID fetches one review document.
func (r *ReviewRepository) FindByID(ctx context.Context, reviewID string) (domain.Review, error) {
	if r == nil || r.base == nil {
		return domain.Review{}, errors.New("review repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(reviewID))
	if err != nil {
		return domain.Review{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns reviews filtered by offering and status, newest first.
func (r *ReviewRepository) List(ctx context.Context, filter repositories.ReviewListFilter) (domain.CursorPage[domain.Review], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Review]{}, errors.New("review repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Review]{}, err
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.OfferingSlug != nil {
			query = query.Where("offeringSlug", "==", strings.TrimSpace(*filter.OfferingSlug))
		}
		if len(filter.Status) == 1 {
			query = query.Where("status", "==", string(filter.Status[0]))
		} else if len(filter.Status) > 1 {
			statuses := make([]string, 0, len(filter.Status))
			for _, status := range filter.Status {
				statuses = append(statuses, string(status))
			}
			query = query.Where("status", "in", statuses)
		}
		query = query.OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			query = query.StartAfter(cursor.StartAfter...)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Review]{}, err
	}

	page := domain.CursorPage[domain.Review]{}
	for i, doc := range docs {
		if i == pageSize {
			last := docs[i-1]
			token, err := pagination.EncodeToken(pagination.Cursor{
				StartAfter: []any{last.Data.CreatedAt, last.ID},
			})
			if err != nil {
				return domain.CursorPage[domain.Review]{}, err
			}
			page.NextPageToken = token
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}
	return page, nil
}

// UpdateStatus transitions a review's moderation state.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, reviewID string, status domain.ReviewStatus, update repositories.ReviewModerationUpdate) (domain.Review, error) {
	if r == nil || r.base == nil {
		return domain.Review{}, errors.New("review repository not initialised")
	}
	id := strings.TrimSpace(reviewID)
	moderatedAt := update.ModeratedAt.UTC()
	if _, err := r.base.Update(ctx, id, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "moderatedBy", Value: update.ModeratedBy},
		{Path: "moderatedAt", Value: moderatedAt},
		{Path: "updatedAt", Value: moderatedAt},
	}, firestore.Exists); err != nil {
		return domain.Review{}, err
	}
	return r.FindByID(ctx, id)
}

type reviewDocument struct {
	OfferingSlug string     `firestore:"offeringSlug"`
	AuthorName   string     `firestore:"authorName"`
	Rating       int        `firestore:"rating"`
	Comment      string     `firestore:"comment,omitempty"`
	Status       string     `firestore:"status"`
	ModeratedBy  *string    `firestore:"moderatedBy,omitempty"`
	ModeratedAt  *time.Time `firestore:"moderatedAt,omitempty"`
	CreatedAt    time.Time  `firestore:"createdAt"`
	UpdatedAt    time.Time  `firestore:"updatedAt"`
}

func newReviewDocument(review domain.Review) reviewDocument {
	return reviewDocument{
		OfferingSlug: review.OfferingSlug,
		AuthorName:   review.AuthorName,
		Rating:       review.Rating,
		Comment:      review.Comment,
		Status:       string(review.Status),
		ModeratedBy:  review.ModeratedBy,
		ModeratedAt:  review.ModeratedAt,
		CreatedAt:    review.CreatedAt.UTC(),
		UpdatedAt:    review.UpdatedAt.UTC(),
	}
}

func (d reviewDocument) toDomain(reviewID string) domain.Review {
	return domain.Review{
		ID:           reviewID,
		OfferingSlug: d.OfferingSlug,
		AuthorName:   d.AuthorName,
		Rating:       d.Rating,
		Comment:      d.Comment,
		Status:       domain.ReviewStatus(d.Status),
		ModeratedBy:  d.ModeratedBy,
		ModeratedAt:  d.ModeratedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
