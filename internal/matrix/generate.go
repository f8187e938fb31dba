package matrix

import "github.com/lelekart/variantmatrix/internal/domain"

// Generate returns the Cartesian product of the attributes' values in
// canonical order: attribute declaration order, then value insertion order.
// Attributes without values are skipped. No attribute with values yields no
// combinations.
func Generate(attrs []domain.Attribute) []domain.Combination {
	active := make([]domain.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if len(a.Values) > 0 {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		return nil
	}

	combos := []domain.Combination{{}}
	for _, a := range active {
		next := make([]domain.Combination, 0, len(combos)*len(a.Values))
		for _, partial := range combos {
			for _, v := range a.Values {
				c := make(domain.Combination, len(partial), len(partial)+1)
				copy(c, partial)
				next = append(next, append(c, domain.Pair{Name: a.Name, Value: v}))
			}
		}
		combos = next
	}
	return combos
}
