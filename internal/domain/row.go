package domain

import (
	"fmt"
	"slices"

	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

// Row is one line of the variant matrix. Prices are minor units.
type Row struct {
	ID          RowKey      `json:"id"`
	Label       string      `json:"label"`
	Combination Combination `json:"combination"`
	SKU         string      `json:"sku"`
	Price       int64       `json:"price"`
	MRP         int64       `json:"mrp"`
	Stock       int         `json:"stock"`
	Enabled     bool        `json:"enabled"`
	Images      []string    `json:"images"`
	// Placeholder is set when Images holds only the synthesized placeholder.
	Placeholder bool `json:"placeholder"`
}

// RealImages returns the images that were uploaded or linked, never the
// placeholder.
func (r *Row) RealImages() []string {
	if r.Placeholder {
		return []string{}
	}
	return slices.Clone(r.Images)
}

// AppendImages adds real images. The first real image replaces the placeholder.
func (r *Row) AppendImages(urls ...string) {
	if len(urls) == 0 {
		return
	}
	if r.Placeholder {
		r.Images = nil
		r.Placeholder = false
	}
	r.Images = append(r.Images, urls...)
}

// RemoveImage deletes the k-th real image. When the last real image goes,
// placeholder becomes the only image.
func (r *Row) RemoveImage(k int, placeholder string) error {
	if r.Placeholder || k < 0 || k >= len(r.Images) {
		return apperrors.InvalidInput(fmt.Sprintf("row %s has no image at index %d", r.Label, k))
	}
	r.Images = slices.Delete(r.Images, k, k+1)
	if len(r.Images) == 0 {
		r.SetPlaceholder(placeholder)
	}
	return nil
}

// SetPlaceholder replaces the images with the single placeholder URL.
func (r *Row) SetPlaceholder(url string) {
	r.Images = []string{url}
	r.Placeholder = true
}

// RowPatch is a partial update of a row's commercial fields.
type RowPatch struct {
	SKU     *string
	Price   *int64
	MRP     *int64
	Stock   *int
	Enabled *bool
}

// Validate rejects negative amounts.
func (p RowPatch) Validate() error {
	switch {
	case p.Price != nil && *p.Price < 0:
		return apperrors.InvalidInput("price must not be negative")
	case p.MRP != nil && *p.MRP < 0:
		return apperrors.InvalidInput("mrp must not be negative")
	case p.Stock != nil && *p.Stock < 0:
		return apperrors.InvalidInput("stock must not be negative")
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p RowPatch) IsEmpty() bool {
	return p.SKU == nil && p.Price == nil && p.MRP == nil && p.Stock == nil && p.Enabled == nil
}

// Apply copies the set fields onto r.
func (p RowPatch) Apply(r *Row) {
	if p.SKU != nil {
		r.SKU = *p.SKU
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.MRP != nil {
		r.MRP = *p.MRP
	}
	if p.Stock != nil {
		r.Stock = *p.Stock
	}
	if p.Enabled != nil {
		r.Enabled = *p.Enabled
	}
}
