// Package census derives the point-in-time view of generated children that
// a statistical return for one reporting window would contain.
package census

import (
	"time"

	"carecensus/pkg/domain"
)

// leavingCareAge is the age in 365-day years a child must exceed at the
// window end to keep leaving-care data.
const leavingCareAge = 17

// Snapshot returns the children whose care overlaps window, each truncated
// so nothing dated at or after window.End is revealed. The input is never
// modified; every returned child is an independent copy.
//
// A child is included on its overall care span, while episodes are kept
// only when their own start or end falls strictly inside the window, so an
// included child may carry no episodes.
func Snapshot(window domain.ReportingWindow, children []domain.Child) ([]domain.Child, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	out := make([]domain.Child, 0, len(children))
	for _, c := range children {
		if !InScope(window, c) {
			continue
		}
		out = append(out, truncate(window, c.Clone()))
	}
	return out, nil
}

// InScope reports whether the child's care span overlaps window. Open
// episodes extend to infinity. A child with no episodes is never in scope.
func InScope(window domain.ReportingWindow, c domain.Child) bool {
	if len(c.Episodes) == 0 {
		return false
	}
	first := c.Episodes[0].StartDate
	open := false
	var last time.Time
	for _, e := range c.Episodes {
		if e.StartDate.Before(first) {
			first = e.StartDate
		}
		if e.EndDate == nil {
			open = true
			continue
		}
		if e.EndDate.After(last) {
			last = *e.EndDate
		}
	}
	return first.Before(window.End) && (open || last.After(window.Start))
}

func truncate(window domain.ReportingWindow, c domain.Child) domain.Child {
	if c.MotherChildDOB != nil && !c.MotherChildDOB.Before(window.End) {
		c.MotherChildDOB = nil
	}
	if domain.AgeInYears(c.DateOfBirth, window.End) <= leavingCareAge {
		c.LeavingCare = nil
	}
	c.Adoption = truncateAdoption(window, c.Adoption)

	episodes := make([]domain.Episode, 0, len(c.Episodes))
	for _, e := range c.Episodes {
		if !episodeInWindow(window, e) {
			continue
		}
		if e.EndDate == nil || !e.EndDate.Before(window.End) {
			e.EndDate = nil
			e.ReasonEnd = nil
			e.ReasonPlaceChange = nil
		}
		episodes = append(episodes, e)
	}
	c.Episodes = episodes

	reviews := c.Reviews[:0]
	for _, r := range c.Reviews {
		if r.Date.Before(window.End) {
			reviews = append(reviews, r)
		}
	}
	c.Reviews = reviews
	return c
}

// episodeInWindow keeps episodes whose start or end lies strictly inside
// the window.
func episodeInWindow(window domain.ReportingWindow, e domain.Episode) bool {
	if window.StrictlyContains(e.StartDate) {
		return true
	}
	return e.EndDate != nil && window.StrictlyContains(*e.EndDate)
}

func truncateAdoption(window domain.ReportingWindow, a *domain.AdoptionData) *domain.AdoptionData {
	if a == nil {
		return nil
	}
	startsInside := window.Contains(a.StartDate)
	endsInside := a.EndDate != nil && window.Contains(*a.EndDate)
	if !startsInside && !endsInside {
		return nil
	}
	if startsInside && !endsInside {
		a.EndDate = nil
		a.ReasonCeased = nil
	}
	return a
}
