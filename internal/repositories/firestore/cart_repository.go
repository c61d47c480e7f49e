package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
	pfirestore "github.com/saltline-charters/api/internal/platform/firestore"
	"github.com/saltline-charters/api/internal/platform/textutil"
)

const cartCollection = "carts"

// CartRepository persists carts keyed by booking session.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		base: pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil),
	}, nil
}

// GetBySession fetches the cart for a booking session.
func (r *CartRepository) GetBySession(ctx context.Context, sessionID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return domain.Cart{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// Upsert writes the full cart document under its session ID.
func (r *CartRepository) Upsert(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	sessionID := strings.TrimSpace(cart.SessionID)
	if sessionID == "" {
		return domain.Cart{}, errors.New("cart repository: session id is required")
	}

	doc := newCartDocument(cart)
	result, err := r.base.Set(ctx, sessionID, doc)
	if err != nil {
		return domain.Cart{}, err
	}
	saved := doc.toDomain(sessionID)
	saved.UpdatedAt = result.UpdateTime
	return saved, nil
}

// Delete removes the session's cart. Deleting an absent cart is a no-op.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("carts.delete", err)
	}
	return nil
}

type cartDocument struct {
	CartID    string             `firestore:"cartId"`
	Currency  string             `firestore:"currency"`
	Lines     []cartLineDocument `firestore:"lines,omitempty"`
	CreatedAt time.Time          `firestore:"createdAt"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartLineDocument struct {
	Identity    string            `firestore:"identity"`
	DisplayName string            `firestore:"displayName"`
	UnitPrice   int64             `firestore:"unitPrice"`
	Quantity    int               `firestore:"quantity"`
	Metadata    map[string]string `firestore:"metadata,omitempty"`
}

func newCartDocument(cart domain.Cart) cartDocument {
	doc := cartDocument{
		CartID:    strings.TrimSpace(cart.ID),
		Currency:  strings.ToUpper(strings.TrimSpace(cart.Currency)),
		CreatedAt: cart.CreatedAt.UTC(),
		UpdatedAt: cart.UpdatedAt.UTC(),
	}
	for _, line := range cart.Lines {
		doc.Lines = append(doc.Lines, cartLineDocument{
			Identity:    line.Identity,
			DisplayName: line.DisplayName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Metadata:    textutil.NormalizeStringMap(line.Metadata),
		})
	}
	return doc
}

func (d cartDocument) toDomain(sessionID string) domain.Cart {
	cart := domain.Cart{
		ID:        d.CartID,
		SessionID: sessionID,
		Currency:  d.Currency,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, line := range d.Lines {
		cart.Lines = append(cart.Lines, domain.CartLineItem{
			Identity:    line.Identity,
			DisplayName: line.DisplayName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Metadata:    textutil.NormalizeStringMap(line.Metadata),
		})
	}
	return cart
}
