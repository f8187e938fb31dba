package repository

import (
	"context"

	"github.com/lelekart/variantmatrix/internal/domain"
)

// DraftRepository stores editing drafts. Get returns an error wrapping
// apperrors.ErrNotFound for unknown or expired drafts.
type DraftRepository interface {
	Get(ctx context.Context, id string) (*domain.Draft, error)

	// Save writes the draft, replacing any previous version.
	Save(ctx context.Context, draft *domain.Draft) error

	// Delete removes the draft. Deleting a missing draft is not an error.
	Delete(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// VariantRepository persists product variants.
type VariantRepository interface {
	// FindByProduct returns every variant of the product in saved order.
	FindByProduct(ctx context.Context, productID string) ([]domain.ProductVariant, error)

	// ListByProduct returns one page of the product's variants and the total count.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]domain.ProductVariant, int, error)

	// ReplaceForProduct atomically replaces all of the product's variants.
	ReplaceForProduct(ctx context.Context, productID string, variants []domain.ProductVariant) error

	// DeleteByProduct removes the product's variants and reports how many.
	DeleteByProduct(ctx context.Context, productID string) (int64, error)
}
