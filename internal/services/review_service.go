package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/repositories"
)

const (
	reviewIDPrefix       = "rev_"
	maxReviewNameLength  = 120
	maxReviewBodyLength  = 4000
	reviewEventSubmitted = "review.submitted"
	reviewEventModerated = "review.moderated"
)

var (
	// ErrReviewInvalidInput indicates validation failures for review operations.
	ErrReviewInvalidInput = errors.New("review service: invalid input")
	// ErrReviewNotFound indicates a review could not be located.
	ErrReviewNotFound = errors.New("review service: not found")
	// ErrReviewInvalidState is returned when a review is moderated twice.
	ErrReviewInvalidState = errors.New("review service: invalid state transition")
	// ErrReviewUnavailable indicates the review backend is unreachable.
	ErrReviewUnavailable = errors.New("review service: unavailable")
)

// ReviewServiceDeps bundles collaborators required to construct a ReviewService.
type ReviewServiceDeps struct {
	Reviews     repositories.ReviewRepository
	Clock       func() time.Time
	IDGenerator func() string
	Sanitizer   func(string) string
	Logger      func(context.Context, string, map[string]any)
}

type reviewService struct {
	reviews  repositories.ReviewRepository
	clock    func() time.Time
	newID    func() string
	sanitize func(string) string
	logger   func(context.Context, string, map[string]any)
}

// NewReviewService wires dependencies into a concrete ReviewService. Comment
// bodies pass through the sanitiser before storage; the default strips all
// markup so guest HTML never reaches the site.
func NewReviewService(deps ReviewServiceDeps) (ReviewService, error) {
	if deps.Reviews == nil {
		return nil, errors.New("review service: repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return reviewIDPrefix + ulid.Make().String()
		}
	}
	sanitize := deps.Sanitizer
	if sanitize == nil {
		policy := bluemonday.StrictPolicy()
		sanitize = policy.Sanitize
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &reviewService{
		reviews:  deps.Reviews,
		clock:    func() time.Time { return clock().UTC() },
		newID:    idGen,
		sanitize: sanitize,
		logger:   logger,
	}, nil
}

// SubmitReview records a guest review into the moderation queue. Reviews are
// stored pending and stay invisible until a staff member approves them.
func (s *reviewService) SubmitReview(ctx context.Context, cmd SubmitReviewCommand) (Review, error) {
	slug := strings.ToLower(strings.TrimSpace(cmd.OfferingSlug))
	if slug == "" {
		return Review{}, fmt.Errorf("%w: offering slug required", ErrReviewInvalidInput)
	}
	author := strings.TrimSpace(s.sanitize(cmd.AuthorName))
	if author == "" {
		return Review{}, fmt.Errorf("%w: author name required", ErrReviewInvalidInput)
	}
	if utf8.RuneCountInString(author) > maxReviewNameLength {
		return Review{}, fmt.Errorf("%w: author name too long", ErrReviewInvalidInput)
	}
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrReviewInvalidInput)
	}

	comment := strings.TrimSpace(s.sanitize(cmd.Comment))
	if utf8.RuneCountInString(comment) > maxReviewBodyLength {
		return Review{}, fmt.Errorf("%w: comment too long", ErrReviewInvalidInput)
	}

	now := s.clock()
	review := Review{
		ID:           s.newID(),
		OfferingSlug: slug,
		AuthorName:   author,
		Rating:       cmd.Rating,
		Comment:      comment,
		Status:       domain.ReviewStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := s.reviews.Insert(ctx, review)
	if err != nil {
		return Review{}, s.translateRepoError(err)
	}

	s.logger(ctx, reviewEventSubmitted, map[string]any{
		"reviewId": saved.ID,
		"offering": saved.OfferingSlug,
		"rating":   saved.Rating,
	})
	return saved, nil
}

func (s *reviewService) ListReviews(ctx context.Context, cmd ReviewListCommand) (domain.CursorPage[Review], error) {
	filter := repositories.ReviewListFilter{
		Status: cmd.Status,
		Pagination: domain.Pagination{
			PageSize:  cmd.Pagination.PageSize,
			PageToken: strings.TrimSpace(cmd.Pagination.PageToken),
		},
	}
	if cmd.OfferingSlug != nil {
		slug := strings.ToLower(strings.TrimSpace(*cmd.OfferingSlug))
		if slug == "" {
			return domain.CursorPage[Review]{}, fmt.Errorf("%w: offering slug cannot be blank", ErrReviewInvalidInput)
		}
		filter.OfferingSlug = &slug
	}

	page, err := s.reviews.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Review]{}, s.translateRepoError(err)
	}
	return page, nil
}

// ModerateReview approves or rejects a pending review. Re-moderating a
// decided review is rejected so the audit history stays linear.
func (s *reviewService) ModerateReview(ctx context.Context, cmd ModerateReviewCommand) (Review, error) {
	reviewID := strings.TrimSpace(cmd.ReviewID)
	if reviewID == "" {
		return Review{}, fmt.Errorf("%w: review id required", ErrReviewInvalidInput)
	}
	moderator := strings.TrimSpace(cmd.ModeratedBy)
	if moderator == "" {
		return Review{}, fmt.Errorf("%w: moderator required", ErrReviewInvalidInput)
	}

	current, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return Review{}, s.translateRepoError(err)
	}
	if current.Status != domain.ReviewStatusPending {
		return Review{}, fmt.Errorf("%w: review %s already %s", ErrReviewInvalidState, reviewID, current.Status)
	}

	status := domain.ReviewStatusRejected
	if cmd.Approve {
		status = domain.ReviewStatusApproved
	}

	updated, err := s.reviews.UpdateStatus(ctx, reviewID, status, repositories.ReviewModerationUpdate{
		ModeratedBy: moderator,
		ModeratedAt: s.clock(),
	})
	if err != nil {
		return Review{}, s.translateRepoError(err)
	}

	s.logger(ctx, reviewEventModerated, map[string]any{
		"reviewId": updated.ID,
		"status":   string(updated.Status),
	})
	return updated, nil
}

func (s *reviewService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrReviewNotFound
		case repoErr.IsConflict():
			return ErrReviewInvalidState
		case repoErr.IsUnavailable():
			return ErrReviewUnavailable
		}
	}
	return ErrReviewUnavailable
}
