package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/repositories"
)

type fakeReviewRepository struct {
	reviews map[string]Review
	err     error
}

func newFakeReviewRepository() *fakeReviewRepository {
	return &fakeReviewRepository{reviews: map[string]Review{}}
}

func (r *fakeReviewRepository) Insert(ctx context.Context, review Review) (Review, error) {
	if r.err != nil {
		return Review{}, r.err
	}
	r.reviews[review.ID] = review
	return review, nil
}

func (r *fakeReviewRepository) FindByID(ctx context.Context, reviewID string) (Review, error) {
	if r.err != nil {
		return Review{}, r.err
	}
	review, ok := r.reviews[reviewID]
	if !ok {
		return Review{}, fakeRepositoryError{notFound: true}
	}
	return review, nil
}

func (r *fakeReviewRepository) List(ctx context.Context, filter repositories.ReviewListFilter) (domain.CursorPage[Review], error) {
	if r.err != nil {
		return domain.CursorPage[Review]{}, r.err
	}
	var items []Review
	for _, review := range r.reviews {
		if filter.OfferingSlug != nil && review.OfferingSlug != *filter.OfferingSlug {
			continue
		}
		if len(filter.Status) > 0 {
			matched := false
			for _, status := range filter.Status {
				if review.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		items = append(items, review)
	}
	return domain.CursorPage[Review]{Items: items}, nil
}

func (r *fakeReviewRepository) UpdateStatus(ctx context.Context, reviewID string, status domain.ReviewStatus, update repositories.ReviewModerationUpdate) (Review, error) {
	if r.err != nil {
		return Review{}, r.err
	}
	review, ok := r.reviews[reviewID]
	if !ok {
		return Review{}, fakeRepositoryError{notFound: true}
	}
	review.Status = status
	review.ModeratedBy = &update.ModeratedBy
	review.ModeratedAt = &update.ModeratedAt
	review.UpdatedAt = update.ModeratedAt
	r.reviews[reviewID] = review
	return review, nil
}

func newTestReviewService(t *testing.T, repo *fakeReviewRepository) ReviewService {
	t.Helper()
	svc, err := NewReviewService(ReviewServiceDeps{
		Reviews: repo,
		Clock:   func() time.Time { return time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewReviewService error: %v", err)
	}
	return svc
}

func TestReviewService_SubmitStoresPending(t *testing.T) {
	repo := newFakeReviewRepository()
	svc := newTestReviewService(t, repo)

	review, err := svc.SubmitReview(context.Background(), SubmitReviewCommand{
		OfferingSlug: "Reef-Runner",
		AuthorName:   "  Jordan R.  ",
		Rating:       5,
		Comment:      "Perfect afternoon on the water.",
	})
	if err != nil {
		t.Fatalf("SubmitReview error: %v", err)
	}
	if review.Status != domain.ReviewStatusPending {
		t.Fatalf("new reviews must be pending, got %s", review.Status)
	}
	if review.OfferingSlug != "reef-runner" || review.AuthorName != "Jordan R." {
		t.Fatalf("unexpected normalisation %+v", review)
	}
	if !strings.HasPrefix(review.ID, "rev_") {
		t.Fatalf("expected generated id, got %q", review.ID)
	}
}

func TestReviewService_SubmitStripsMarkup(t *testing.T) {
	repo := newFakeReviewRepository()
	svc := newTestReviewService(t, repo)

	review, err := svc.SubmitReview(context.Background(), SubmitReviewCommand{
		OfferingSlug: "reef-runner",
		AuthorName:   "Sam <script>alert(1)</script>",
		Rating:       4,
		Comment:      "Great crew! <img src=x onerror=alert(1)> Would book again.",
	})
	if err != nil {
		t.Fatalf("SubmitReview error: %v", err)
	}
	if strings.Contains(review.AuthorName, "<") || strings.Contains(review.Comment, "<") {
		t.Fatalf("markup must be stripped before storage: %+v", review)
	}
	if !strings.Contains(review.Comment, "Would book again.") {
		t.Fatalf("plain text must survive sanitisation, got %q", review.Comment)
	}
}

func TestReviewService_SubmitValidation(t *testing.T) {
	svc := newTestReviewService(t, newFakeReviewRepository())

	cases := []struct {
		name string
		cmd  SubmitReviewCommand
	}{
		{name: "blank_slug", cmd: SubmitReviewCommand{AuthorName: "Sam", Rating: 4}},
		{name: "blank_author", cmd: SubmitReviewCommand{OfferingSlug: "reef-runner", Rating: 4}},
		{name: "rating_low", cmd: SubmitReviewCommand{OfferingSlug: "reef-runner", AuthorName: "Sam", Rating: 0}},
		{name: "rating_high", cmd: SubmitReviewCommand{OfferingSlug: "reef-runner", AuthorName: "Sam", Rating: 6}},
		{name: "author_too_long", cmd: SubmitReviewCommand{OfferingSlug: "reef-runner", AuthorName: strings.Repeat("a", 121), Rating: 4}},
		{name: "comment_too_long", cmd: SubmitReviewCommand{OfferingSlug: "reef-runner", AuthorName: "Sam", Rating: 4, Comment: strings.Repeat("b", 4001)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SubmitReview(context.Background(), tc.cmd); !errors.Is(err, ErrReviewInvalidInput) {
				t.Fatalf("expected ErrReviewInvalidInput, got %v", err)
			}
		})
	}
}

func TestReviewService_ModerateApproveAndReject(t *testing.T) {
	repo := newFakeReviewRepository()
	svc := newTestReviewService(t, repo)

	submitted, err := svc.SubmitReview(context.Background(), SubmitReviewCommand{
		OfferingSlug: "reef-runner",
		AuthorName:   "Sam",
		Rating:       4,
	})
	if err != nil {
		t.Fatalf("SubmitReview error: %v", err)
	}

	approved, err := svc.ModerateReview(context.Background(), ModerateReviewCommand{
		ReviewID:    submitted.ID,
		Approve:     true,
		ModeratedBy: "staff@saltline",
	})
	if err != nil {
		t.Fatalf("ModerateReview error: %v", err)
	}
	if approved.Status != domain.ReviewStatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}
	if approved.ModeratedBy == nil || *approved.ModeratedBy != "staff@saltline" {
		t.Fatalf("expected moderator recorded, got %+v", approved.ModeratedBy)
	}

	// A decided review cannot be moderated again.
	_, err = svc.ModerateReview(context.Background(), ModerateReviewCommand{
		ReviewID:    submitted.ID,
		Approve:     false,
		ModeratedBy: "staff@saltline",
	})
	if !errors.Is(err, ErrReviewInvalidState) {
		t.Fatalf("expected ErrReviewInvalidState, got %v", err)
	}

	rejected, err := svc.SubmitReview(context.Background(), SubmitReviewCommand{
		OfferingSlug: "reef-runner",
		AuthorName:   "Alex",
		Rating:       1,
	})
	if err != nil {
		t.Fatalf("SubmitReview error: %v", err)
	}
	moderated, err := svc.ModerateReview(context.Background(), ModerateReviewCommand{
		ReviewID:    rejected.ID,
		Approve:     false,
		ModeratedBy: "staff@saltline",
	})
	if err != nil {
		t.Fatalf("ModerateReview error: %v", err)
	}
	if moderated.Status != domain.ReviewStatusRejected {
		t.Fatalf("expected rejected status, got %s", moderated.Status)
	}
}

func TestReviewService_ModerateMissingReview(t *testing.T) {
	svc := newTestReviewService(t, newFakeReviewRepository())

	_, err := svc.ModerateReview(context.Background(), ModerateReviewCommand{
		ReviewID:    "rev_missing",
		Approve:     true,
		ModeratedBy: "staff@saltline",
	})
	if !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("expected ErrReviewNotFound, got %v", err)
	}
}

func TestReviewService_ListFiltersByStatus(t *testing.T) {
	repo := newFakeReviewRepository()
	svc := newTestReviewService(t, repo)

	first, _ := svc.SubmitReview(context.Background(), SubmitReviewCommand{OfferingSlug: "reef-runner", AuthorName: "Sam", Rating: 4})
	if _, err := svc.SubmitReview(context.Background(), SubmitReviewCommand{OfferingSlug: "reef-runner", AuthorName: "Alex", Rating: 5}); err != nil {
		t.Fatalf("SubmitReview error: %v", err)
	}
	if _, err := svc.ModerateReview(context.Background(), ModerateReviewCommand{ReviewID: first.ID, Approve: true, ModeratedBy: "staff@saltline"}); err != nil {
		t.Fatalf("ModerateReview error: %v", err)
	}

	slug := "reef-runner"
	page, err := svc.ListReviews(context.Background(), ReviewListCommand{
		OfferingSlug: &slug,
		Status:       []ReviewStatus{domain.ReviewStatusApproved},
	})
	if err != nil {
		t.Fatalf("ListReviews error: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != first.ID {
		t.Fatalf("expected only the approved review, got %+v", page.Items)
	}
}

func TestReviewService_RepositoryErrorsTranslated(t *testing.T) {
	repo := newFakeReviewRepository()
	repo.err = fakeRepositoryError{unavailable: true}
	svc := newTestReviewService(t, repo)

	_, err := svc.SubmitReview(context.Background(), SubmitReviewCommand{
		OfferingSlug: "reef-runner",
		AuthorName:   "Sam",
		Rating:       4,
	})
	if !errors.Is(err, ErrReviewUnavailable) {
		t.Fatalf("expected ErrReviewUnavailable, got %v", err)
	}
}
