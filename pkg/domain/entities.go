// Package domain defines the child-in-care record shapes, configuration value
// types and error taxonomy shared by the carecensus generators, the census
// snapshot and the exporters.
package domain

import "time"

// Sex codes used by the return.
const (
	SexMale   = 1
	SexFemale = 2
)

// DefaultPreviousPermanence is the "no previous permanence option" code.
const DefaultPreviousPermanence = "Z1"

// Placement describes where a child lives during an episode.
type Placement struct {
	Type          string `json:"type"`
	Provider      string `json:"provider"`
	HomePostcode  string `json:"home_postcode"`
	PlacePostcode string `json:"place_postcode"`
	URN           string `json:"urn"`
}

// Episode is a continuous period of care under one legal status and placement.
// A nil EndDate means the episode is open.
type Episode struct {
	StartDate           time.Time  `json:"start_date"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	ReasonForNewEpisode string     `json:"reason_for_new_episode"`
	LegalStatus         string     `json:"legal_status"`
	CIN                 string     `json:"cin"`
	Placement           Placement  `json:"placement"`
	ReasonEnd           *string    `json:"reason_end,omitempty"`
	ReasonPlaceChange   *string    `json:"reason_place_change,omitempty"`
}

// IsOpen reports whether the episode has no end date.
func (e Episode) IsOpen() bool { return e.EndDate == nil }

// DurationDays returns the whole days between start and end, or zero when open.
func (e Episode) DurationDays() int {
	if e.EndDate == nil {
		return 0
	}
	return DaysBetween(e.StartDate, *e.EndDate)
}

// Clone returns a deep copy that shares no pointers with e.
func (e Episode) Clone() Episode {
	out := e
	out.EndDate = cloneTime(e.EndDate)
	out.ReasonEnd = cloneString(e.ReasonEnd)
	out.ReasonPlaceChange = cloneString(e.ReasonPlaceChange)
	return out
}

// Review is a statutory case review.
type Review struct {
	Date time.Time `json:"date"`
	Code string    `json:"code"`
}

// LeavingCareData captures the care leaver (OC3) fields.
type LeavingCareData struct {
	InTouch       string `json:"in_touch"`
	Activity      string `json:"activity"`
	Accommodation string `json:"accommodation"`
}

// AdoptionData captures the adoption (AD1) and placed-for-adoption fields.
type AdoptionData struct {
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	ReasonCeased         *string    `json:"reason_ceased,omitempty"`
	FosterCare           bool       `json:"foster_care"`
	NumberOfAdopters     string     `json:"number_of_adopters"`
	SexOfAdopter         string     `json:"sex_of_adopter"`
	LegalStatusOfAdopter string     `json:"legal_status_of_adopter"`
}

func (a *AdoptionData) clone() *AdoptionData {
	if a == nil {
		return nil
	}
	out := *a
	out.EndDate = cloneTime(a.EndDate)
	out.ReasonCeased = cloneString(a.ReasonCeased)
	return &out
}

// OutcomesData captures the outcomes (OC2) fields for children looked after
// for at least twelve months.
type OutcomesData struct {
	SDQScore             *int    `json:"sdq_score,omitempty"`
	SDQReason            *string `json:"sdq_reason,omitempty"`
	Convicted            bool    `json:"convicted"`
	HealthCheck          bool    `json:"health_check"`
	Immunisations        bool    `json:"immunisations"`
	TeethCheck           bool    `json:"teeth_check"`
	HealthAssessment     bool    `json:"health_assessment"`
	SubstanceMisuse      bool    `json:"substance_misuse"`
	InterventionReceived bool    `json:"intervention_received"`
	InterventionOffered  bool    `json:"intervention_offered"`
}

func (o *OutcomesData) clone() *OutcomesData {
	if o == nil {
		return nil
	}
	out := *o
	if o.SDQScore != nil {
		score := *o.SDQScore
		out.SDQScore = &score
	}
	out.SDQReason = cloneString(o.SDQReason)
	return &out
}

// Child is one synthetic child with its full care history.
type Child struct {
	ID                    int              `json:"id"`
	UPN                   string           `json:"upn"`
	Sex                   int              `json:"sex"`
	Ethnicity             string           `json:"ethnicity"`
	DateOfBirth           time.Time        `json:"date_of_birth"`
	Episodes              []Episode        `json:"episodes"`
	Reviews               []Review         `json:"reviews"`
	MotherChildDOB        *time.Time       `json:"mother_child_dob,omitempty"`
	UASCCeased            *time.Time       `json:"uasc_ceased,omitempty"`
	LeavingCare           *LeavingCareData `json:"leaving_care,omitempty"`
	Adoption              *AdoptionData    `json:"adoption,omitempty"`
	Outcomes              *OutcomesData    `json:"outcomes,omitempty"`
	PreviousPermanent     string           `json:"previous_permanent"`
	PreviousPermanentDate *time.Time       `json:"previous_permanent_date,omitempty"`
}

// IsMother reports whether a motherhood date is recorded.
func (c Child) IsMother() bool { return c.MotherChildDOB != nil }

// IsUASC reports whether the child is an unaccompanied asylum-seeking child.
func (c Child) IsUASC() bool { return c.UASCCeased != nil }

// Clone returns a deep copy of the child that shares no mutable state with c.
func (c Child) Clone() Child {
	out := c
	if c.Episodes != nil {
		out.Episodes = make([]Episode, len(c.Episodes))
		for i, e := range c.Episodes {
			out.Episodes[i] = e.Clone()
		}
	}
	if c.Reviews != nil {
		out.Reviews = append([]Review(nil), c.Reviews...)
	}
	out.MotherChildDOB = cloneTime(c.MotherChildDOB)
	out.UASCCeased = cloneTime(c.UASCCeased)
	if c.LeavingCare != nil {
		lc := *c.LeavingCare
		out.LeavingCare = &lc
	}
	out.Adoption = c.Adoption.clone()
	out.Outcomes = c.Outcomes.clone()
	out.PreviousPermanentDate = cloneTime(c.PreviousPermanentDate)
	return out
}

// CloneChildren deep copies a population.
func CloneChildren(in []Child) []Child {
	if in == nil {
		return nil
	}
	out := make([]Child, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
