package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lelekart/variantmatrix/internal/domain"
	"github.com/lelekart/variantmatrix/pkg/database"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

const variantColumns = `id, product_id, sku, color, size, price, mrp, stock, images, attributes, created_at, updated_at`

// VariantRepository implements repository.VariantRepository using PostgreSQL.
type VariantRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

// NewVariantRepository creates a new PostgreSQL-backed variant repository.
func NewVariantRepository(db database.DBTX, logger *slog.Logger) *VariantRepository {
	return &VariantRepository{db: db, logger: logger}
}

// FindByProduct returns every variant of the product in saved order.
func (r *VariantRepository) FindByProduct(ctx context.Context, productID string) (_ []domain.ProductVariant, err error) {
	query := `
		SELECT ` + variantColumns + `
		FROM product_variants
		WHERE product_id = $1
		ORDER BY position, id`

	ctx, end := database.TraceQuery(ctx, "FindVariantsByProduct", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("find variants by product: %w", err)
	}
	defer rows.Close()

	variants := []domain.ProductVariant{}
	for rows.Next() {
		v, err := r.scanVariant(ctx, rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant rows: %w", err)
	}

	return variants, nil
}

// ListByProduct returns one page of the product's variants and the total count.
func (r *VariantRepository) ListByProduct(ctx context.Context, productID string, limit, offset int) (_ []domain.ProductVariant, _ int, err error) {
	query := `
		SELECT ` + variantColumns + `, count(*) OVER() AS total_count
		FROM product_variants
		WHERE product_id = $1
		ORDER BY position, id
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListVariantsByProduct", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list variants by product: %w", err)
	}
	defer rows.Close()

	var (
		variants = []domain.ProductVariant{}
		total    int
	)
	for rows.Next() {
		v, err := r.scanVariant(ctx, rows, &total)
		if err != nil {
			return nil, 0, err
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate variant rows: %w", err)
	}

	// The window count is absent when the page is past the end.
	if len(variants) == 0 && offset > 0 {
		err = r.db.QueryRow(ctx, `SELECT count(*) FROM product_variants WHERE product_id = $1`, productID).Scan(&total)
		if err != nil {
			return nil, 0, fmt.Errorf("count variants by product: %w", err)
		}
	}

	return variants, total, nil
}

// ReplaceForProduct deletes the product's variants and inserts the given
// ones in a single transaction, preserving their order.
func (r *VariantRepository) ReplaceForProduct(ctx context.Context, productID string, variants []domain.ProductVariant) (err error) {
	insert := `
		INSERT INTO product_variants (` + variantColumns + `, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	ctx, end := database.TraceQuery(ctx, "ReplaceVariants", insert)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete previous variants: %w", err)
	}

	for i, v := range variants {
		images, attrs, err := encodeJSONColumns(v)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, insert,
			v.ID,
			productID,
			v.SKU,
			v.Color,
			v.Size,
			v.Price,
			v.MRP,
			v.Stock,
			images,
			attrs,
			v.CreatedAt,
			v.UpdatedAt,
			i,
		)
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("variant", "sku", v.SKU)
		}
		if err != nil {
			return fmt.Errorf("insert variant %s: %w", v.SKU, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DeleteByProduct removes the product's variants.
func (r *VariantRepository) DeleteByProduct(ctx context.Context, productID string) (_ int64, err error) {
	query := `DELETE FROM product_variants WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteVariantsByProduct", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, productID)
	if err != nil {
		return 0, fmt.Errorf("delete variants by product: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *VariantRepository) scanVariant(ctx context.Context, rows pgx.Rows, total ...*int) (domain.ProductVariant, error) {
	var (
		v           domain.ProductVariant
		imagesJSON  []byte
		attrsJSON   []byte
		destination = []any{
			&v.ID,
			&v.ProductID,
			&v.SKU,
			&v.Color,
			&v.Size,
			&v.Price,
			&v.MRP,
			&v.Stock,
			&imagesJSON,
			&attrsJSON,
			&v.CreatedAt,
			&v.UpdatedAt,
		}
	)
	for _, t := range total {
		destination = append(destination, t)
	}

	if err := rows.Scan(destination...); err != nil {
		return domain.ProductVariant{}, fmt.Errorf("scan variant row: %w", err)
	}

	if err := json.Unmarshal(imagesJSON, &v.Images); err != nil {
		r.logger.WarnContext(ctx, "malformed variant images, treating as empty",
			slog.String("variant_id", v.ID),
			slog.String("error", err.Error()),
		)
		v.Images = []string{}
	}
	if v.Images == nil {
		v.Images = []string{}
	}

	if len(attrsJSON) > 0 {
		if err := json.Unmarshal(attrsJSON, &v.Attributes); err != nil {
			r.logger.WarnContext(ctx, "malformed variant attributes, treating as empty",
				slog.String("variant_id", v.ID),
				slog.String("error", err.Error()),
			)
			v.Attributes = nil
		}
	}

	return v, nil
}

func encodeJSONColumns(v domain.ProductVariant) ([]byte, []byte, error) {
	images := v.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal variant images: %w", err)
	}

	attrs := v.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal variant attributes: %w", err)
	}

	return imagesJSON, attrsJSON, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
