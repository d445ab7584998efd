package model_selection

import (
	"sort"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// ParamGrid maps a hyperparameter name to the values to try.
type ParamGrid map[string][]interface{}

// Expand returns the cartesian product of the grid. Keys are visited in
// sorted order and the last key varies fastest, so the expansion order is
// stable across runs. An empty grid expands to one empty combination.
func (g ParamGrid) Expand() ([]map[string]interface{}, error) {
	keys := make([]string, 0, len(g))
	for k, values := range g {
		if len(values) == 0 {
			return nil, errors.NewValidationError(k, "parameter grid entry has no values", values)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []map[string]interface{}{{}}
	for _, k := range keys {
		next := make([]map[string]interface{}, 0, len(combos)*len(g[k]))
		for _, base := range combos {
			for _, v := range g[k] {
				c := make(map[string]interface{}, len(base)+1)
				for bk, bv := range base {
					c[bk] = bv
				}
				c[k] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos, nil
}

// Size は組み合わせの総数を返す
func (g ParamGrid) Size() int {
	n := 1
	for _, v := range g {
		n *= len(v)
	}
	return n
}
