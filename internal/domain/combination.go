package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode"
)

// RowKey identifies a combination structurally.
type RowKey string

// Pair assigns one value to one attribute.
type Pair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Combination is an ordered assignment of values, in attribute declaration
// order.
type Combination []Pair

// Key returns the hex SHA-256 of the length-prefixed name/value pairs. Two
// combinations share a key only if they have the same pairs in the same order.
func (c Combination) Key() RowKey {
	h := sha256.New()
	var buf []byte
	for _, p := range c {
		buf = binary.AppendUvarint(buf[:0], uint64(len(p.Name)))
		buf = append(buf, p.Name...)
		buf = binary.AppendUvarint(buf, uint64(len(p.Value)))
		buf = append(buf, p.Value...)
		h.Write(buf)
	}
	return RowKey(hex.EncodeToString(h.Sum(nil)))
}

// Label joins the values with "-" after stripping whitespace, e.g. "Red-S".
// It is for display only and may collide.
func (c Combination) Label() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = StripSpace(p.Value)
	}
	return strings.Join(parts, "-")
}

// Value returns the value assigned to name, or "".
func (c Combination) Value(name string) string {
	for _, p := range c {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// Values returns the values in order.
func (c Combination) Values() []string {
	out := make([]string, len(c))
	for i, p := range c {
		out[i] = p.Value
	}
	return out
}

// Map returns the combination as a name -> value map.
func (c Combination) Map() map[string]string {
	out := make(map[string]string, len(c))
	for _, p := range c {
		out[p.Name] = p.Value
	}
	return out
}

// StripSpace removes every whitespace rune from s.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
