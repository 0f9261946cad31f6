package synth

import (
	"fmt"
	"math/bits"

	"carecensus/pkg/domain"
)

// maxGapDays bounds the uniform wait drawn before each period of care.
const maxGapDays = 200

// Schedule is the day layout of a child's periods of care relative to the
// history start. Gaps[i] is the wait before chain i.
type Schedule struct {
	Gaps     []int
	Lengths  []int
	Rescaled bool
}

// Total returns the sum of every gap and length.
func (s Schedule) Total() int {
	total := 0
	for i := range s.Gaps {
		total += s.Gaps[i] + s.Lengths[i]
	}
	return total
}

// Offsets returns the day offset of each chain start from the history
// start: the chain's own gap plus every earlier gap and length.
func (s Schedule) Offsets() []int {
	out := make([]int, len(s.Gaps))
	elapsed := 0
	for i := range s.Gaps {
		out[i] = elapsed + s.Gaps[i]
		elapsed += s.Gaps[i] + s.Lengths[i]
	}
	return out
}

// PlanSchedule fits raw gaps and lengths under ceilingDays. When the raw
// total exceeds the ceiling every value is scaled by ceilingDays/total and
// truncated to whole days, so no chain is dropped. A zero total is
// returned as is.
func PlanSchedule(gaps, lengths []int, ceilingDays int) (Schedule, error) {
	if len(gaps) != len(lengths) {
		return Schedule{}, fmt.Errorf("plan schedule: %d gaps for %d chains", len(gaps), len(lengths))
	}
	if ceilingDays < 0 {
		return Schedule{}, domain.DegenerateTimelineError{Field: "ceiling_days", Days: ceilingDays}
	}
	total := 0
	for i := range gaps {
		if gaps[i] < 0 {
			return Schedule{}, domain.DegenerateTimelineError{Field: fmt.Sprintf("gap[%d]", i), Days: gaps[i]}
		}
		if lengths[i] < 0 {
			return Schedule{}, domain.DegenerateTimelineError{Field: fmt.Sprintf("length[%d]", i), Days: lengths[i]}
		}
		total += gaps[i] + lengths[i]
	}
	out := Schedule{
		Gaps:    append([]int(nil), gaps...),
		Lengths: append([]int(nil), lengths...),
	}
	if total == 0 || total <= ceilingDays {
		return out, nil
	}
	for i := range out.Gaps {
		out.Gaps[i] = scaleDays(out.Gaps[i], ceilingDays, total)
		out.Lengths[i] = scaleDays(out.Lengths[i], ceilingDays, total)
	}
	out.Rescaled = true
	return out, nil
}

// scaleDays returns floor(v*num/den) without overflow or rounding error.
// Callers guarantee 0 <= v <= den and 0 <= num < den.
func scaleDays(v, num, den int) int {
	hi, lo := bits.Mul64(uint64(v), uint64(num))
	q, _ := bits.Div64(hi, lo, uint64(den))
	return int(q)
}
