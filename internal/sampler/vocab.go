package sampler

import (
	"fmt"
	"strconv"

	"carecensus/pkg/domain"
)

var (
	legalStatuses = []string{"C1", "C2", "D1", "E1", "V2", "V3", "V4", "L1", "L2", "L3", "J1", "J2", "J3"}

	cinCodes = []string{"N1", "N2", "N3", "N4", "N5", "N6", "N7", "N8"}

	placementTypes = []string{
		"A3", "A4", "A5", "A6", "H5", "K1", "K2", "P1", "P2", "P3", "R1", "R2", "R3", "R5",
		"S1", "T0", "T1", "T2", "T3", "T4", "U1", "U2", "U3", "U4", "U5", "U6", "Z1",
	}

	placementProviders = []string{"PR0", "PR1", "PR2", "PR3", "PR4", "PR5"}

	// terminalReasons never contains domain.ReasonEndTransition.
	terminalReasons = []string{
		"E11", "E12", "E2", "E3", "E4A", "E4B", "E13", "E41", "E45", "E46", "E47", "E48", "E5",
		"E6", "E7", "E9", "E14", "E15", "E16", "E17", "E8",
	}

	placementChangeReasons = []string{
		"CARPL", "CLOSE", "ALLEG", "STAND", "APPRR", "CREQB", "CREQO", "CHILD", "LAREQ", "PLACE", "CUSTOD", "OTHER",
	}

	reviewCodes = []string{"PN0", "PN1", "PN2", "PN3", "PN4", "PN5", "PN6", "PN7"}

	ethnicities = []string{
		"WBRI", "WIRI", "WOTH", "WIRT", "WROM", "MWBC", "MWBA", "MWAS", "MOTH", "AIND", "APKN",
		"ABAN", "AOTH", "BCRB", "BAFR", "BOTH", "CHNE", "OOTH", "REFU", "NOBT",
	}

	inTouchCodes  = []string{"YES", "NO", "DIED", "REFU", "NREQ", "RHOM"}
	activityCodes = []string{"F1", "P1", "F2", "P2", "F3", "P3", "G4", "G5", "G6", "0"}
	accommodation = accommodationCodes()

	adoptionCeasedReasons = []string{"E11", "E12", "RD1", "RD2", "RD3", "RD4"}
	singleAdopterSex      = []string{"M1", "F1"}
	coupleAdopterSex      = []string{"MM", "FF", "MF"}
	coupleAdopterStatus   = []string{"L11", "L12", "L2", "L3", "L4"}

	sdqReasons = []string{"SDQ1", "SDQ2", "SDQ3", "SDQ4", "SDQ5"}
)

func accommodationCodes() []string {
	out := make([]string, 0, 34)
	for _, code := range "BCDEGHKRSTUVWZYZ0" {
		for _, suitability := range "12" {
			out = append(out, string(code)+string(suitability))
		}
	}
	return out
}

// TerminalReasons returns a copy of the codes that may close a period of care.
func TerminalReasons() []string { return append([]string(nil), terminalReasons...) }

// LegalStatus draws a legal status code.
func (s *Sampler) LegalStatus() string { return s.Choice(legalStatuses) }

// CIN draws a category-of-need code.
func (s *Sampler) CIN() string { return s.Choice(cinCodes) }

// TerminalReason draws a reason that closes a period of care.
func (s *Sampler) TerminalReason() string { return s.Choice(terminalReasons) }

// PlacementChangeReason draws a reason for a change of placement.
func (s *Sampler) PlacementChangeReason() string { return s.Choice(placementChangeReasons) }

// ReviewCode draws a review participation code.
func (s *Sampler) ReviewCode() string { return s.Choice(reviewCodes) }

// Ethnicity draws an ethnicity code.
func (s *Sampler) Ethnicity() string { return s.Choice(ethnicities) }

// Sex draws domain.SexMale or domain.SexFemale.
func (s *Sampler) Sex() int { return s.IntRange(domain.SexMale, domain.SexFemale) }

// Postcode returns a postcode-shaped string such as "K12 4TR". It is not
// guaranteed to be a real postcode.
func (s *Sampler) Postcode() string {
	return fmt.Sprintf("%c%d %d%c%c", s.Letter(), s.IntRange(1, 30), s.IntRange(1, 9), s.Letter(), s.Letter())
}

// URN returns a 7-digit unique reference number.
func (s *Sampler) URN() string {
	return strconv.Itoa(s.IntRange(1000000, 9999999))
}

// Placement draws a complete placement tuple.
func (s *Sampler) Placement() domain.Placement {
	return domain.Placement{
		Type:          s.Choice(placementTypes),
		Provider:      s.Choice(placementProviders),
		HomePostcode:  s.Postcode(),
		PlacePostcode: s.Postcode(),
		URN:           s.URN(),
	}
}

// LeavingCare draws a care leaver's outcome codes.
func (s *Sampler) LeavingCare() domain.LeavingCareData {
	return domain.LeavingCareData{
		InTouch:       s.Choice(inTouchCodes),
		Activity:      s.Choice(activityCodes),
		Accommodation: s.Choice(accommodation),
	}
}

// AdoptionCeasedReason draws why a placement for adoption stopped.
func (s *Sampler) AdoptionCeasedReason() string { return s.Choice(adoptionCeasedReasons) }

// Adopters draws the number, sex and legal status of the adopters.
func (s *Sampler) Adopters() (number, sex, legalStatus string) {
	if s.Bernoulli(0.5) {
		return "1", s.Choice(singleAdopterSex), "L0"
	}
	return "2", s.Choice(coupleAdopterSex), s.Choice(coupleAdopterStatus)
}

// Outcomes draws the annual outcomes record. Most children get an SDQ
// score; the rest carry a reason it was not recorded.
func (s *Sampler) Outcomes() domain.OutcomesData {
	out := domain.OutcomesData{
		Convicted:            s.Bernoulli(0.05),
		HealthCheck:          s.Bernoulli(0.9),
		Immunisations:        s.Bernoulli(0.85),
		TeethCheck:           s.Bernoulli(0.85),
		HealthAssessment:     s.Bernoulli(0.9),
		SubstanceMisuse:      s.Bernoulli(0.05),
		InterventionReceived: s.Bernoulli(0.5),
		InterventionOffered:  s.Bernoulli(0.5),
	}
	if s.Bernoulli(0.8) {
		score := s.IntRange(0, 40)
		out.SDQScore = &score
	} else {
		out.SDQReason = domain.StringPtr(s.Choice(sdqReasons))
	}
	return out
}
