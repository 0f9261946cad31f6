package synth

import (
	"time"

	"carecensus/pkg/domain"
)

// History generates every period of care for a child born on dob, starting
// no earlier than historyStart and ending no later than the eighteenth
// birthday. Episodes are returned in chronological order.
func (b *Builder) History(historyStart, dob time.Time) ([]domain.Episode, error) {
	chains, err := b.chains(historyStart, dob)
	if err != nil {
		return nil, err
	}
	var out []domain.Episode
	for _, c := range chains {
		out = append(out, c...)
	}
	return out, nil
}

// DrawSchedule samples chain count, raw lengths and gaps and fits them
// under the age ceiling.
func (b *Builder) DrawSchedule(historyStart, dob time.Time) (Schedule, error) {
	k := 1 + b.s.Poisson(b.probs.AverageExtraEpisodeRate())
	lengths := make([]int, k)
	for i := range lengths {
		lengths[i] = b.s.Geometric(b.probs.DailyEpisodeEnding())
	}
	gaps := make([]int, k)
	for i := range gaps {
		gaps[i] = b.s.IntRange(0, maxGapDays)
	}
	ceiling := domain.DaysBetween(historyStart, domain.AdultDate(dob))
	return PlanSchedule(gaps, lengths, ceiling)
}

func (b *Builder) chains(historyStart, dob time.Time) ([][]domain.Episode, error) {
	plan, err := b.DrawSchedule(historyStart, dob)
	if err != nil {
		return nil, err
	}
	offsets := plan.Offsets()
	out := make([][]domain.Episode, 0, len(offsets))
	for i, off := range offsets {
		chain, err := b.Chain(domain.AddDays(historyStart, off), plan.Lengths[i])
		if err != nil {
			return nil, err
		}
		out = append(out, chain)
	}
	return out, nil
}
