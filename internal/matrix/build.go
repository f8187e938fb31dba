package matrix

import (
	"fmt"
	"strings"

	"github.com/lelekart/variantmatrix/internal/domain"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

// Save-gate rejection codes.
const (
	CodeNoVariantsEnabled   = "NO_VARIANTS_ENABLED"
	CodeInvalidVariantPrice = "INVALID_VARIANT_PRICE"
	CodeProductRequired     = "PRODUCT_ID_REQUIRED"
)

// BuildVariants maps the enabled rows to product variants. It rejects a
// matrix with no enabled rows, or with an enabled row whose price or mrp is
// zero, or a draft not bound to a product. newID supplies variant ids.
func BuildVariants(productID string, rows []domain.Row, newID func() string) ([]domain.ProductVariant, error) {
	var enabled []domain.Row
	for _, r := range rows {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	if len(enabled) == 0 {
		return nil, apperrors.Unprocessable(CodeNoVariantsEnabled, "no variants enabled")
	}

	var unpriced []string
	for _, r := range enabled {
		if r.Price == 0 || r.MRP == 0 {
			unpriced = append(unpriced, r.Label)
		}
	}
	if len(unpriced) > 0 {
		return nil, apperrors.Unprocessable(CodeInvalidVariantPrice,
			fmt.Sprintf("price and mrp are required for: %s", strings.Join(unpriced, ", ")))
	}

	if productID == "" {
		return nil, apperrors.Unprocessable(CodeProductRequired, "draft is not bound to a product")
	}

	variants := make([]domain.ProductVariant, len(enabled))
	for i, r := range enabled {
		variants[i] = domain.ProductVariant{
			ID:         newID(),
			ProductID:  productID,
			SKU:        r.SKU,
			Color:      r.Combination.Value(domain.AttributeColor),
			Size:       r.Combination.Value(domain.AttributeSize),
			Price:      r.Price,
			MRP:        r.MRP,
			Stock:      r.Stock,
			Images:     r.RealImages(),
			Attributes: r.Combination.Map(),
		}
	}
	return variants, nil
}
