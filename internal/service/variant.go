package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lelekart/variantmatrix/internal/domain"
	"github.com/lelekart/variantmatrix/internal/metrics"
	"github.com/lelekart/variantmatrix/internal/repository"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
	"github.com/lelekart/variantmatrix/pkg/pagination"
)

// VariantService serves persisted variants outside of a draft.
type VariantService struct {
	repo    repository.VariantRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewVariantService creates a new variant service. m may be nil.
func NewVariantService(repo repository.VariantRepository, m *metrics.Metrics, logger *slog.Logger) *VariantService {
	return &VariantService{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// ListVariants returns one page of a product's variants and the total count.
func (s *VariantService) ListVariants(ctx context.Context, productID string, page pagination.Params) ([]domain.ProductVariant, int, error) {
	if productID == "" {
		return nil, 0, apperrors.InvalidInput("product id is required")
	}

	variants, total, err := s.repo.ListByProduct(ctx, productID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list variants: %w", err)
	}
	return variants, total, nil
}

// HandleProductDeleted removes every variant of a deleted product.
func (s *VariantService) HandleProductDeleted(ctx context.Context, productID string) (int64, error) {
	removed, err := s.repo.DeleteByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("delete variants of product %s: %w", productID, err)
	}
	if removed > 0 {
		s.metrics.ProductDeleted()
	}

	s.logger.DebugContext(ctx, "variants removed for deleted product",
		slog.String("product_id", productID),
		slog.Int64("removed", removed),
	)
	return removed, nil
}
