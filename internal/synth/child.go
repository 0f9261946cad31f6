package synth

import (
	"time"

	"carecensus/pkg/domain"
)

const (
	minAgeAtStart         = 1
	maxAgeAtStart         = 14
	earliestMotherhoodAge = 12
	leavingCareAge        = 17
	outcomesMinChainDays  = domain.DaysPerYear
)

// Identity is the pre-issued identifier pair for one child.
type Identity struct {
	ID  int
	UPN string
}

// Child assembles one complete child record for the generation window
// [windowStart, windowEnd): demographics, care history, reviews and the
// optional ancillary records.
func (b *Builder) Child(id Identity, windowStart, windowEnd time.Time) (domain.Child, error) {
	dob := b.s.DateOfBirth(windowStart, minAgeAtStart, maxAgeAtStart)
	sex := b.s.Sex()
	child := domain.Child{
		ID:                id.ID,
		UPN:               id.UPN,
		Sex:               sex,
		DateOfBirth:       dob,
		PreviousPermanent: domain.DefaultPreviousPermanence,
		MotherChildDOB:    b.motherhoodDate(sex, dob),
		UASCCeased:        b.uascCeasedDate(dob),
	}

	chains, err := b.chains(windowStart, dob)
	if err != nil {
		return domain.Child{}, err
	}
	for _, c := range chains {
		child.Episodes = append(child.Episodes, c...)
	}
	child.Reviews = b.Reviews(child.Episodes)
	child.Ethnicity = b.s.Ethnicity()

	if b.s.Bernoulli(b.probs.IsAdopted()) {
		adoption, err := b.adoption(chains[len(chains)-1])
		if err != nil {
			return domain.Child{}, err
		}
		child.Adoption = adoption
	}
	if domain.AgeInYears(dob, windowEnd) > leavingCareAge {
		lc := b.s.LeavingCare()
		child.LeavingCare = &lc
	}
	if hasLongChain(chains) {
		oc := b.s.Outcomes()
		child.Outcomes = &oc
	}
	return child, nil
}

// motherhoodDate returns the birth date of a female child's own child,
// drawn between her twelfth and eighteenth birthdays, or nil.
func (b *Builder) motherhoodDate(sex int, dob time.Time) *time.Time {
	if sex != domain.SexFemale || !b.s.Bernoulli(b.probs.IsMother()) {
		return nil
	}
	earliest := domain.AddDays(dob, earliestMotherhoodAge*domain.DaysPerYear)
	span := (domain.AdultAgeYears - earliestMotherhoodAge) * domain.DaysPerYear
	return domain.TimePtr(domain.AddDays(earliest, b.s.IntRange(0, span)))
}

// uascCeasedDate returns the eighteenth birthday (365-day years) for
// unaccompanied children, or nil.
func (b *Builder) uascCeasedDate(dob time.Time) *time.Time {
	if !b.s.Bernoulli(b.probs.IsUASC()) {
		return nil
	}
	return domain.TimePtr(domain.AddDays(dob, domain.AdultAgeYears*domain.DaysPerYear))
}

// adoption places the child for adoption during its final period of care.
// Half of placements cease when that period ends.
func (b *Builder) adoption(chain []domain.Episode) (*domain.AdoptionData, error) {
	start, end, err := chainSpan(chain)
	if err != nil {
		return nil, err
	}
	placed := domain.AddDays(start, b.s.IntRange(0, domain.DaysBetween(start, end)))
	number, sex, status := b.s.Adopters()
	a := &domain.AdoptionData{
		StartDate:            placed,
		FosterCare:           b.s.Bernoulli(0.5),
		NumberOfAdopters:     number,
		SexOfAdopter:         sex,
		LegalStatusOfAdopter: status,
	}
	if b.s.Bernoulli(0.5) {
		a.EndDate = domain.TimePtr(end)
		a.ReasonCeased = domain.StringPtr(b.s.AdoptionCeasedReason())
	}
	return a, nil
}

func hasLongChain(chains [][]domain.Episode) bool {
	for _, c := range chains {
		start, end, err := chainSpan(c)
		if err == nil && domain.DaysBetween(start, end) >= outcomesMinChainDays {
			return true
		}
	}
	return false
}
