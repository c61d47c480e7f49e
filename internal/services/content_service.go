package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/repositories"
)

const defaultContentLocale = "en"

var (
	// ErrContentInvalidInput indicates the caller supplied invalid input.
	ErrContentInvalidInput = errors.New("content service: invalid input")
	// ErrContentNotFound indicates the requested page does not exist.
	ErrContentNotFound = errors.New("content service: not found")
	// ErrContentUnavailable indicates the content backend is unreachable.
	ErrContentUnavailable = errors.New("content service: unavailable")
)

// ContentServiceDeps bundles constructor inputs for the content service.
type ContentServiceDeps struct {
	Content repositories.ContentRepository
	Clock   func() time.Time
}

type contentService struct {
	repo  repositories.ContentRepository
	clock func() time.Time
}

// NewContentService constructs the content service.
func NewContentService(deps ContentServiceDeps) (ContentService, error) {
	if deps.Content == nil {
		return nil, errors.New("content service: repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &contentService{
		repo:  deps.Content,
		clock: func() time.Time { return clock().UTC() },
	}, nil
}

// GetPage loads a page by slug, falling back to the default locale when the
// requested locale has no translation.
func (s *contentService) GetPage(ctx context.Context, slug string, locale string) (ContentPage, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return ContentPage{}, fmt.Errorf("%w: slug required", ErrContentInvalidInput)
	}
	locale = normaliseLocale(locale)

	page, err := s.repo.GetPage(ctx, slug, locale)
	if err != nil {
		if isRepoNotFound(err) && locale != defaultContentLocale {
			page, err = s.repo.GetPage(ctx, slug, defaultContentLocale)
		}
		if err != nil {
			return ContentPage{}, s.translateRepoError(err)
		}
	}
	return page, nil
}

func (s *contentService) ListPages(ctx context.Context, cmd ContentPageListCommand) (domain.CursorPage[ContentPage], error) {
	filter := repositories.ContentPageFilter{
		OnlyPublished: cmd.OnlyPublished,
		Pagination: domain.Pagination{
			PageSize:  cmd.Pagination.PageSize,
			PageToken: strings.TrimSpace(cmd.Pagination.PageToken),
		},
	}
	if cmd.Locale != nil {
		locale := normaliseLocale(*cmd.Locale)
		filter.Locale = &locale
	}
	page, err := s.repo.ListPages(ctx, filter)
	if err != nil {
		return domain.CursorPage[ContentPage]{}, s.translateRepoError(err)
	}
	return page, nil
}

func (s *contentService) UpsertPage(ctx context.Context, page ContentPage) (ContentPage, error) {
	page.Slug = strings.ToLower(strings.TrimSpace(page.Slug))
	page.Locale = normaliseLocale(page.Locale)
	page.Title = strings.TrimSpace(page.Title)
	if page.Slug == "" {
		return ContentPage{}, fmt.Errorf("%w: slug required", ErrContentInvalidInput)
	}
	if page.Title == "" {
		return ContentPage{}, fmt.Errorf("%w: title required", ErrContentInvalidInput)
	}
	page.UpdatedAt = s.clock()

	saved, err := s.repo.UpsertPage(ctx, page)
	if err != nil {
		return ContentPage{}, s.translateRepoError(err)
	}
	return saved, nil
}

func (s *contentService) DeletePage(ctx context.Context, pageID string) error {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return fmt.Errorf("%w: page id required", ErrContentInvalidInput)
	}
	if err := s.repo.DeletePage(ctx, pageID); err != nil {
		return s.translateRepoError(err)
	}
	return nil
}

func normaliseLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		return defaultContentLocale
	}
	return locale
}

func (s *contentService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrContentNotFound
		case repoErr.IsUnavailable():
			return ErrContentUnavailable
		}
	}
	return ErrContentUnavailable
}
