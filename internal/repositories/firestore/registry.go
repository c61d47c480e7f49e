package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/saltline-charters/api/internal/platform/firestore"
	"github.com/saltline-charters/api/internal/repositories"
)

// Registry wires the Firestore-backed repositories behind the repositories.Registry contract.
type Registry struct {
	provider  *pfirestore.Provider
	offerings *OfferingRepository
	carts     *CartRepository
	reviews   *ReviewRepository
	content   *ContentRepository
	health    repositories.HealthRepository
}

// RegistryDeps collects the collaborators required to build the registry.
type RegistryDeps struct {
	Provider *pfirestore.Provider
	Health   repositories.HealthRepository
}

// NewRegistry constructs the registry and its repositories.
func NewRegistry(deps RegistryDeps) (*Registry, error) {
	if deps.Provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	offerings, err := NewOfferingRepository(deps.Provider)
	if err != nil {
		return nil, err
	}
	carts, err := NewCartRepository(deps.Provider)
	if err != nil {
		return nil, err
	}
	reviews, err := NewReviewRepository(deps.Provider)
	if err != nil {
		return nil, err
	}
	content, err := NewContentRepository(deps.Provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:  deps.Provider,
		offerings: offerings,
		carts:     carts,
		reviews:   reviews,
		content:   content,
		health:    deps.Health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Offerings returns the offering repository.
func (r *Registry) Offerings() repositories.OfferingRepository { return r.offerings }

// Carts returns the cart repository.
func (r *Registry) Carts() repositories.CartRepository { return r.carts }

// Reviews returns the review repository.
func (r *Registry) Reviews() repositories.ReviewRepository { return r.reviews }

// Content returns the content repository.
func (r *Registry) Content() repositories.ContentRepository { return r.content }

// Health returns the health repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx executes fn inside a Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.provider == nil {
		return errors.New("registry not initialised")
	}
	if fn == nil {
		return errors.New("registry: transaction function is nil")
	}
	return r.provider.RunTransaction(ctx, func(txCtx context.Context, _ *firestore.Transaction) error {
		return fn(txCtx)
	}, pfirestore.WithTxTimeout(15*time.Second))
}

var _ repositories.Registry = (*Registry)(nil)
