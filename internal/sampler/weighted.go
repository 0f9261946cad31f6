package sampler

import (
	"sort"

	"carecensus/pkg/domain"
)

// WeightedTable is a compiled categorical distribution. Build it once and
// draw from it many times.
type WeightedTable struct {
	codes      []string
	cumulative []float64
	total      float64
}

// NewWeightedTable validates weights and compiles a cumulative table. The
// field name is reported in any ConfigurationError.
func NewWeightedTable(field string, weights []domain.WeightedCode) (WeightedTable, error) {
	m := make(map[string]float64, len(weights))
	for _, w := range weights {
		m[w.Code] += w.Weight
	}
	ordered, err := domain.CompileWeights(field, m)
	if err != nil {
		return WeightedTable{}, err
	}
	t := WeightedTable{
		codes:      make([]string, 0, len(ordered)),
		cumulative: make([]float64, 0, len(ordered)),
	}
	for _, w := range ordered {
		if w.Weight == 0 {
			continue
		}
		t.total += w.Weight
		t.codes = append(t.codes, w.Code)
		t.cumulative = append(t.cumulative, t.total)
	}
	return t, nil
}

// Codes returns the codes with non-zero weight in draw order.
func (t WeightedTable) Codes() []string { return append([]string(nil), t.codes...) }

// Draw samples one code.
func (t WeightedTable) Draw(s *Sampler) string {
	target := s.Float64() * t.total
	i := sort.SearchFloat64s(t.cumulative, target)
	// SearchFloat64s returns the first index with cumulative >= target; an
	// exact hit belongs to the next bucket.
	for i < len(t.cumulative)-1 && t.cumulative[i] <= target {
		i++
	}
	return t.codes[i]
}
