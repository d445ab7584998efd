package catboost

import "sort"

// computeBorders returns, per feature, the ascending split borders.
// With few distinct values every midpoint is a border; otherwise borders are
// taken at evenly spaced quantiles of the distinct values.
func computeBorders(X [][]float64, maxBorders int) [][]float64 {
	p := len(X[0])
	borders := make([][]float64, p)
	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		uniq := sorted[:0:0]
		for i, v := range sorted {
			if i == 0 || v != sorted[i-1] {
				uniq = append(uniq, v)
			}
		}
		if len(uniq) < 2 {
			continue
		}
		mids := make([]float64, len(uniq)-1)
		for k := range mids {
			mids[k] = uniq[k] + (uniq[k+1]-uniq[k])/2
		}
		if len(mids) <= maxBorders {
			borders[j] = mids
			continue
		}
		picked := make([]float64, 0, maxBorders)
		for k := 0; k < maxBorders; k++ {
			pos := (k*len(mids) + len(mids)/2) / maxBorders
			if len(picked) == 0 || mids[pos] != picked[len(picked)-1] {
				picked = append(picked, mids[pos])
			}
		}
		borders[j] = picked
	}
	return borders
}

// binIndex returns the number of borders strictly below v, so bin b means
// borders[b-1] < v <= borders[b].
func binIndex(borders []float64, v float64) int {
	return sort.SearchFloat64s(borders, v)
}
