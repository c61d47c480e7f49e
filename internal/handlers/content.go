package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saltline-charters/api/internal/platform/httpx"
	"github.com/saltline-charters/api/internal/repositories"
	"github.com/saltline-charters/api/internal/services"
)

// ContentHandlers serves CMS-managed marketing pages.
type ContentHandlers struct {
	content services.ContentService
}

// NewContentHandlers constructs the content handlers.
func NewContentHandlers(content services.ContentService) *ContentHandlers {
	return &ContentHandlers{content: content}
}

// Routes registers the public content endpoints.
func (h *ContentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{slug}", h.getPage)
}

func (h *ContentHandlers) getPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	locale := strings.TrimSpace(r.URL.Query().Get("locale"))

	page, err := h.content.GetPage(ctx, slug, locale)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, contentPageResponse{Page: buildContentPagePayload(page)})
}

type contentPageResponse struct {
	Page contentPagePayload `json:"page"`
}

type contentPagePayload struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Locale    string `json:"locale"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	HeroImage string `json:"hero_image,omitempty"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

func buildContentPagePayload(page services.ContentPage) contentPagePayload {
	return contentPagePayload{
		ID:        page.ID,
		Slug:      page.Slug,
		Locale:    page.Locale,
		Title:     page.Title,
		Body:      page.Body,
		HeroImage: page.HeroImage,
		Status:    page.Status,
		UpdatedAt: formatTime(page.UpdatedAt),
	}
}

func writeContentError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrContentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrContentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("page_not_found", "content page not found", http.StatusNotFound))
	case errors.Is(err, services.ErrContentUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content temporarily unavailable", http.StatusServiceUnavailable))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content repository unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("content_error", "failed to load content page", http.StatusInternalServerError))
	}
}
