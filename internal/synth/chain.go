// Package synth generates synthetic care histories: contiguous episode
// chains, their scheduling up to the age ceiling, statutory reviews and
// whole child records.
package synth

import (
	"fmt"
	"time"

	"carecensus/internal/sampler"
	"carecensus/pkg/domain"
)

// Builder draws care histories for one stream of randomness. It is not safe
// for concurrent use; the Generator gives each child its own Builder.
type Builder struct {
	s       *sampler.Sampler
	probs   domain.Probabilities
	reasons sampler.WeightedTable
}

// NewBuilder validates probs and compiles the transition-reason table.
func NewBuilder(s *sampler.Sampler, probs domain.Probabilities) (*Builder, error) {
	if err := probs.Validate(); err != nil {
		return nil, err
	}
	reasons, err := sampler.NewWeightedTable("reason_for_episode_change", probs.ReasonForEpisodeChange())
	if err != nil {
		return nil, err
	}
	return &Builder{s: s, probs: probs, reasons: reasons}, nil
}

// Chain generates one continuous period of care covering
// [start, start+lengthDays]. The first episode opens with RNEStarted; each
// daily change closes the open episode with domain.ReasonEndTransition and
// opens a successor on the same day. The final episode closes on the last
// day with a terminal reason.
func (b *Builder) Chain(start time.Time, lengthDays int) ([]domain.Episode, error) {
	if lengthDays < 0 {
		return nil, domain.DegenerateTimelineError{Field: "chain_length", Days: lengthDays}
	}
	episodes := []domain.Episode{{
		StartDate:           start,
		ReasonForNewEpisode: domain.RNEStarted,
		LegalStatus:         b.s.LegalStatus(),
		CIN:                 b.s.CIN(),
		Placement:           b.s.Placement(),
	}}
	changing := b.probs.DailyEpisodeChanging()
	for d := 0; d < lengthDays; d++ {
		if !b.s.Bernoulli(changing) {
			continue
		}
		day := domain.AddDays(start, d)
		last := &episodes[len(episodes)-1]
		last.EndDate = domain.TimePtr(day)
		last.ReasonEnd = domain.StringPtr(domain.ReasonEndTransition)

		reason := b.reasons.Draw(b.s)
		next := last.Clone()
		next.StartDate = day
		next.EndDate = nil
		next.ReasonEnd = nil
		next.ReasonPlaceChange = nil
		next.ReasonForNewEpisode = reason
		if domain.ChangesLegalStatus(reason) {
			next.LegalStatus = b.s.LegalStatus()
		}
		if domain.ChangesPlacement(reason) {
			next.Placement = b.s.Placement()
			last.ReasonPlaceChange = domain.StringPtr(b.s.PlacementChangeReason())
		}
		episodes = append(episodes, next)
	}
	final := &episodes[len(episodes)-1]
	final.EndDate = domain.TimePtr(domain.AddDays(start, lengthDays))
	final.ReasonEnd = domain.StringPtr(b.s.TerminalReason())
	return episodes, nil
}

// chainSpan returns the first start and final end of a chain.
func chainSpan(chain []domain.Episode) (time.Time, time.Time, error) {
	if len(chain) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("empty chain")
	}
	last := chain[len(chain)-1]
	if last.EndDate == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("chain starting %s is open", chain[0].StartDate.Format(time.DateOnly))
	}
	return chain[0].StartDate, *last.EndDate, nil
}
