package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/platform/httpx"
	"github.com/saltline-charters/api/internal/platform/pagination"
	"github.com/saltline-charters/api/internal/repositories"
	"github.com/saltline-charters/api/internal/services"
)

const maxReviewBodySize = 32 * 1024

// ReviewHandlers exposes public review submission and the staff moderation queue.
type ReviewHandlers struct {
	reviews services.ReviewService
	submits RateLimiter
}

// ReviewHandlersDeps bundles collaborators for the review endpoints.
type ReviewHandlersDeps struct {
	Reviews       services.ReviewService
	SubmitLimiter RateLimiter
}

// NewReviewHandlers constructs the review handlers.
func NewReviewHandlers(deps ReviewHandlersDeps) *ReviewHandlers {
	return &ReviewHandlers{
		reviews: deps.Reviews,
		submits: deps.SubmitLimiter,
	}
}

// Routes registers the public review endpoints.
func (h *ReviewHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitReview)
}

// AdminRoutes registers the moderation queue endpoints.
func (h *ReviewHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listReviews)
	r.Post("/{reviewId}:moderate", h.moderateReview)
}

func (h *ReviewHandlers) submitReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review service unavailable", http.StatusServiceUnavailable))
		return
	}

	if h.submits != nil && !h.submits.Allow(sessionIDFromRequest(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many review submissions", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxReviewBodySize)
	if err != nil {
		writeBodyReadError(ctx, w, err)
		return
	}

	var req submitReviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	review, err := h.reviews.SubmitReview(ctx, services.SubmitReviewCommand{
		OfferingSlug: strings.TrimSpace(req.OfferingSlug),
		AuthorName:   strings.TrimSpace(req.AuthorName),
		Rating:       req.Rating,
		Comment:      req.Comment,
	})
	if err != nil {
		writeReviewError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, reviewResponse{Review: buildReviewPayload(review)})
}

func (h *ReviewHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.ReviewListCommand{
		Pagination: services.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	}

	if offering := strings.TrimSpace(r.URL.Query().Get("offering")); offering != "" {
		cmd.OfferingSlug = &offering
	}

	for _, raw := range r.URL.Query()["status"] {
		status, ok := parseReviewStatus(raw)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown review status "+raw, http.StatusBadRequest))
			return
		}
		cmd.Status = append(cmd.Status, status)
	}

	page, err := h.reviews.ListReviews(ctx, cmd)
	if err != nil {
		writeReviewError(ctx, w, err)
		return
	}

	items := make([]reviewPayload, 0, len(page.Items))
	for _, review := range page.Items {
		items = append(items, buildReviewPayload(review))
	}

	writeJSONResponse(w, http.StatusOK, reviewListResponse{
		Reviews:       items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *ReviewHandlers) moderateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review service unavailable", http.StatusServiceUnavailable))
		return
	}

	reviewID := strings.TrimSpace(chi.URLParam(r, "reviewId"))
	if reviewID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "review id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxReviewBodySize)
	if err != nil {
		writeBodyReadError(ctx, w, err)
		return
	}

	var req moderateReviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	review, err := h.reviews.ModerateReview(ctx, services.ModerateReviewCommand{
		ReviewID:    reviewID,
		Approve:     req.Approve,
		ModeratedBy: strings.TrimSpace(req.ModeratedBy),
	})
	if err != nil {
		writeReviewError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, reviewResponse{Review: buildReviewPayload(review)})
}

func parseReviewStatus(raw string) (services.ReviewStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(domain.ReviewStatusPending):
		return domain.ReviewStatusPending, true
	case string(domain.ReviewStatusApproved):
		return domain.ReviewStatusApproved, true
	case string(domain.ReviewStatusRejected):
		return domain.ReviewStatusRejected, true
	}
	return "", false
}

type submitReviewRequest struct {
	OfferingSlug string `json:"offering_slug"`
	AuthorName   string `json:"author_name"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
}

type moderateReviewRequest struct {
	Approve     bool   `json:"approve"`
	ModeratedBy string `json:"moderated_by"`
}

type reviewResponse struct {
	Review reviewPayload `json:"review"`
}

type reviewListResponse struct {
	Reviews       []reviewPayload `json:"reviews"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

type reviewPayload struct {
	ID           string  `json:"id"`
	OfferingSlug string  `json:"offering_slug"`
	AuthorName   string  `json:"author_name"`
	Rating       int     `json:"rating"`
	Comment      string  `json:"comment"`
	Status       string  `json:"status"`
	ModeratedBy  *string `json:"moderated_by,omitempty"`
	ModeratedAt  string  `json:"moderated_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func buildReviewPayload(review services.Review) reviewPayload {
	return reviewPayload{
		ID:           review.ID,
		OfferingSlug: review.OfferingSlug,
		AuthorName:   review.AuthorName,
		Rating:       review.Rating,
		Comment:      review.Comment,
		Status:       string(review.Status),
		ModeratedBy:  cloneStringPointer(review.ModeratedBy),
		ModeratedAt:  formatTime(pointerTime(review.ModeratedAt)),
		CreatedAt:    formatTime(review.CreatedAt),
		UpdatedAt:    formatTime(review.UpdatedAt),
	}
}

func writeReviewError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrReviewInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReviewInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("review_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrReviewNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("review_not_found", "review not found", http.StatusNotFound))
	case errors.Is(err, services.ErrReviewUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "reviews temporarily unavailable", http.StatusServiceUnavailable))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review repository unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("review_error", "failed to process review request", http.StatusInternalServerError))
	}
}
