package matrix

import (
	"net/url"
	"slices"
	"strings"

	"github.com/lelekart/variantmatrix/internal/domain"
)

const (
	DefaultSKUFallback = "PROD"
	skuPrefixMaxLen    = 10
)

// Materializer turns combinations into rows, carrying user-entered data over
// from earlier rows and persisted variants.
type Materializer struct {
	PlaceholderBaseURL string
	SKUFallback        string
}

// Materialize builds one row per combination. For each combination, a prior
// row with the same key supplies sku, price, mrp, stock, enabled and real
// images; failing that, a matching persisted variant does. Rows with no real
// image get a placeholder. Output is a pure function of the inputs.
func (m Materializer) Materialize(productName string, combos []domain.Combination, prior []domain.Row, persisted []domain.ProductVariant) []domain.Row {
	byID := make(map[domain.RowKey]*domain.Row, len(prior))
	for i := range prior {
		byID[prior[i].ID] = &prior[i]
	}

	rows := make([]domain.Row, 0, len(combos))
	for _, c := range combos {
		row := domain.Row{
			ID:          c.Key(),
			Label:       c.Label(),
			Combination: slices.Clone(c),
			Enabled:     true,
		}

		var images []string
		p, carried := byID[row.ID]
		if carried {
			row.SKU, row.Price, row.MRP, row.Stock, row.Enabled = p.SKU, p.Price, p.MRP, p.Stock, p.Enabled
			images = p.RealImages()
		} else if v := findVariant(persisted, c); v != nil {
			row.SKU, row.Price, row.MRP, row.Stock = v.SKU, v.Price, v.MRP, v.Stock
			images = slices.Clone(v.Images)
		}

		if !carried && row.SKU == "" {
			row.SKU = DefaultSKU(productName, m.fallback(), c)
		}

		if len(images) > 0 {
			row.Images = images
		} else {
			row.SetPlaceholder(m.PlaceholderURL(c))
		}
		rows = append(rows, row)
	}
	return rows
}

// PlaceholderURL encodes the combination's color, then size, under the
// placeholder base URL. Combinations with neither use all their values.
func (m Materializer) PlaceholderURL(c domain.Combination) string {
	var parts []string
	for _, name := range []string{domain.AttributeColor, domain.AttributeSize} {
		if v := c.Value(name); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		parts = c.Values()
	}
	text := strings.Join(parts, " / ")
	if text == "" {
		text = "No image"
	}
	return strings.TrimRight(m.PlaceholderBaseURL, "/") + "/600x600?text=" + url.QueryEscape(text)
}

func (m Materializer) fallback() string {
	if m.SKUFallback == "" {
		return DefaultSKUFallback
	}
	return m.SKUFallback
}

func findVariant(persisted []domain.ProductVariant, c domain.Combination) *domain.ProductVariant {
	for i := range persisted {
		if persisted[i].Matches(c) {
			return &persisted[i]
		}
	}
	return nil
}

// DefaultSKU builds "<PREFIX>-<value>-<value>": the product name reduced to
// upper-case ASCII letters and digits, at most 10 characters, or fallback
// when nothing is left; then the combination values without whitespace.
func DefaultSKU(productName, fallback string, c domain.Combination) string {
	var b strings.Builder
	for _, r := range productName {
		if b.Len() == skuPrefixMaxLen {
			break
		}
		switch {
		case 'a' <= r && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			b.WriteRune(r)
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = fallback
	}

	parts := make([]string, 0, len(c)+1)
	parts = append(parts, prefix)
	for _, v := range c.Values() {
		parts = append(parts, domain.StripSpace(v))
	}
	return strings.Join(parts, "-")
}
