package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/saltline-charters/api/internal/domain"
	pfirestore "github.com/saltline-charters/api/internal/platform/firestore"
	"github.com/saltline-charters/api/internal/platform/pagination"
	"github.com/saltline-charters/api/internal/repositories"
)

const contentCollection = "content_pages"

// ContentRepository persists marketing pages keyed by slug and locale.
type ContentRepository struct {
	base *pfirestore.BaseRepository[contentPageDocument]
}

// NewContentRepository constructs a Firestore-backed content repository.
func NewContentRepository(provider *pfirestore.Provider) (*ContentRepository, error) {
	if provider == nil {
		return nil, errors.New("content repository requires firestore provider")
	}
	return &ContentRepository{
		base: pfirestore.NewBaseRepository[contentPageDocument](provider, contentCollection, nil, nil),
	}, nil
}

// GetPage fetches the page for the exact slug and locale pair.
func (r *ContentRepository) GetPage(ctx context.Context, slug string, locale string) (domain.ContentPage, error) {
	if r == nil || r.base == nil {
		return domain.ContentPage{}, errors.New("content repository not initialised")
	}
	doc, err := r.base.Get(ctx, contentDocumentID(slug, locale))
	if err != nil {
		return domain.ContentPage{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListPages returns pages filtered by locale with cursor paging.
func (r *ContentRepository) ListPages(ctx context.Context, filter repositories.ContentPageFilter) (domain.CursorPage[domain.ContentPage], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.ContentPage]{}, errors.New("content repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.ContentPage]{}, err
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.Locale != nil {
			query = query.Where("locale", "==", strings.ToLower(strings.TrimSpace(*filter.Locale)))
		}
		if filter.OnlyPublished {
			query = query.Where("status", "==", "published")
		}
		query = query.OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			query = query.StartAfter(cursor.StartAfter...)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.ContentPage]{}, err
	}

	page := domain.CursorPage[domain.ContentPage]{}
	for i, doc := range docs {
		if i == pageSize {
			token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []any{docs[i-1].ID}})
			if err != nil {
				return domain.CursorPage[domain.ContentPage]{}, err
			}
			page.NextPageToken = token
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}
	return page, nil
}

// UpsertPage writes the page document under its slug and locale.
func (r *ContentRepository) UpsertPage(ctx context.Context, page domain.ContentPage) (domain.ContentPage, error) {
	if r == nil || r.base == nil {
		return domain.ContentPage{}, errors.New("content repository not initialised")
	}
	if strings.TrimSpace(page.Slug) == "" || strings.TrimSpace(page.Locale) == "" {
		return domain.ContentPage{}, errors.New("content repository: slug and locale are required")
	}

	docID := contentDocumentID(page.Slug, page.Locale)
	doc := newContentPageDocument(page)
	result, err := r.base.Set(ctx, docID, doc)
	if err != nil {
		return domain.ContentPage{}, err
	}
	saved := doc.toDomain(docID)
	saved.UpdatedAt = result.UpdateTime
	return saved, nil
}

// DeletePage removes the page matching the given page ID.
func (r *ContentRepository) DeletePage(ctx context.Context, pageID string) error {
	if r == nil || r.base == nil {
		return errors.New("content repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("pageId", "==", strings.TrimSpace(pageID)).Limit(1)
	})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return pfirestore.WrapError("content_pages.delete", status.Error(codes.NotFound, "content page not found"))
	}

	ref, err := r.base.DocumentRef(ctx, docs[0].ID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("content_pages.delete", err)
	}
	return nil
}

func contentDocumentID(slug, locale string) string {
	return fmt.Sprintf("%s__%s",
		strings.ToLower(strings.TrimSpace(slug)),
		strings.ToLower(strings.TrimSpace(locale)))
}

type contentPageDocument struct {
	PageID    string    `firestore:"pageId"`
	Slug      string    `firestore:"slug"`
	Locale    string    `firestore:"locale"`
	Title     string    `firestore:"title"`
	Body      string    `firestore:"body,omitempty"`
	HeroImage string    `firestore:"heroImage,omitempty"`
	Status    string    `firestore:"status"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newContentPageDocument(page domain.ContentPage) contentPageDocument {
	return contentPageDocument{
		PageID:    strings.TrimSpace(page.ID),
		Slug:      strings.ToLower(strings.TrimSpace(page.Slug)),
		Locale:    strings.ToLower(strings.TrimSpace(page.Locale)),
		Title:     page.Title,
		Body:      page.Body,
		HeroImage: page.HeroImage,
		Status:    page.Status,
		UpdatedAt: page.UpdatedAt.UTC(),
	}
}

func (d contentPageDocument) toDomain(string) domain.ContentPage {
	return domain.ContentPage{
		ID:        d.PageID,
		Slug:      d.Slug,
		Locale:    d.Locale,
		Title:     d.Title,
		Body:      d.Body,
		HeroImage: d.HeroImage,
		Status:    d.Status,
		UpdatedAt: d.UpdatedAt,
	}
}
