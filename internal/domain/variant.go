package domain

import (
	"slices"
	"time"
)

// ProductVariant is a persisted, sellable variant of a product. Color and Size
// are denormalized from Attributes for catalog queries.
type ProductVariant struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"product_id"`
	SKU        string            `json:"sku"`
	Color      string            `json:"color"`
	Size       string            `json:"size"`
	Price      int64             `json:"price"`
	MRP        int64             `json:"mrp"`
	Stock      int               `json:"stock"`
	Images     []string          `json:"images"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// AttributeValue returns the variant's value for the named attribute. Rows
// written before Attributes existed only carry Color and Size.
func (v *ProductVariant) AttributeValue(name string) string {
	if val, ok := v.Attributes[name]; ok {
		return val
	}
	switch name {
	case AttributeColor:
		return v.Color
	case AttributeSize:
		return v.Size
	}
	return ""
}

// Matches reports whether the variant was saved for exactly combination c.
func (v *ProductVariant) Matches(c Combination) bool {
	for _, p := range c {
		if v.AttributeValue(p.Name) != p.Value {
			return false
		}
	}
	return v.attributeCount() == len(c)
}

func (v *ProductVariant) attributeCount() int {
	n := 0
	for _, val := range v.Attributes {
		if val != "" {
			n++
		}
	}
	if _, ok := v.Attributes[AttributeColor]; !ok && v.Color != "" {
		n++
	}
	if _, ok := v.Attributes[AttributeSize]; !ok && v.Size != "" {
		n++
	}
	return n
}

// Clone returns a deep copy.
func (v ProductVariant) Clone() ProductVariant {
	v.Images = slices.Clone(v.Images)
	if v.Attributes != nil {
		attrs := make(map[string]string, len(v.Attributes))
		for k, val := range v.Attributes {
			attrs[k] = val
		}
		v.Attributes = attrs
	}
	return v
}
