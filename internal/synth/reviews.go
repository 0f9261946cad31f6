package synth

import (
	"sort"

	"carecensus/pkg/domain"
)

// minDaysForReview is the in-care time after which at least one review is
// always scheduled.
const minDaysForReview = 20

// Reviews places statutory reviews across the in-care days of episodes.
// Offsets are drawn with replacement, so two reviews may share a date.
func (b *Builder) Reviews(episodes []domain.Episode) []domain.Review {
	total := 0
	for _, e := range episodes {
		total += e.DurationDays()
	}
	if total <= 0 {
		return nil
	}
	n := b.s.Poisson(b.probs.ReviewFrequency() * float64(total))
	if total > minDaysForReview && n < 1 {
		n = 1
	}
	if n == 0 {
		return nil
	}
	offsets := make([]int, n)
	for i := range offsets {
		offsets[i] = b.s.IntRange(0, total-1)
	}
	sort.Ints(offsets)

	reviews := make([]domain.Review, 0, n)
	before, next := 0, 0
	for _, e := range episodes {
		days := e.DurationDays()
		for next < len(offsets) && offsets[next] < before+days {
			reviews = append(reviews, domain.Review{
				Date: domain.AddDays(e.StartDate, offsets[next]-before),
				Code: b.s.ReviewCode(),
			})
			next++
		}
		before += days
	}
	return reviews
}
