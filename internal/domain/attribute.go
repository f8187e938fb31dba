package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

// Well-known attribute names. ProductVariant.Color and ProductVariant.Size
// are read from combinations by these keys.
const (
	AttributeColor = "Color"
	AttributeSize  = "Size"
)

// MaxValueLength bounds one attribute value in characters.
const MaxValueLength = 100

// Attribute is one axis of product variation. Values keep insertion order and
// never contain duplicates.
type Attribute struct {
	Name     string   `json:"name"`
	Values   []string `json:"values"`
	Optional bool     `json:"optional"`
}

// DefaultAttributes is the attribute set a new draft starts with.
func DefaultAttributes() []Attribute {
	return []Attribute{
		{Name: AttributeColor, Values: []string{}},
		{Name: AttributeSize, Values: []string{}, Optional: true},
	}
}

// AddValue trims value and appends it. Blank, overlong and exactly
// duplicated values are rejected.
func (a *Attribute) AddValue(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return apperrors.InvalidInput(fmt.Sprintf("%s value must not be blank", a.Name))
	}
	if utf8.RuneCountInString(value) > MaxValueLength {
		return apperrors.InvalidInput(fmt.Sprintf("%s value is longer than %d characters", a.Name, MaxValueLength))
	}
	if slices.Contains(a.Values, value) {
		return apperrors.InvalidInput(fmt.Sprintf("%s already has value %q", a.Name, value))
	}
	a.Values = append(a.Values, value)
	return nil
}

// RemoveValue deletes the value at index i.
func (a *Attribute) RemoveValue(i int) error {
	if i < 0 || i >= len(a.Values) {
		return apperrors.InvalidInput(fmt.Sprintf("%s has no value at index %d", a.Name, i))
	}
	a.Values = slices.Delete(a.Values, i, i+1)
	return nil
}

// Ready reports whether the attribute may leave the attribute step.
func (a Attribute) Ready() bool {
	return a.Optional || len(a.Values) > 0
}
