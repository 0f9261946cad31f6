// Package sampler draws categorical codes and random quantities for the
// synthetic record generators. Every draw goes through an explicit
// *rand.Rand so generation is reproducible from a seed.
package sampler

import (
	"math"
	"math/rand/v2"
	"time"

	"carecensus/pkg/domain"
)

const (
	letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// poissonNormalThreshold is the mean above which Poisson draws use the
	// normal approximation instead of Knuth's multiplication method.
	poissonNormalThreshold = 30

	// maxGeometric caps geometric draws so very small success
	// probabilities cannot overflow day arithmetic.
	maxGeometric = math.MaxInt32

	// maxPoisson caps Poisson draws before the int conversion.
	maxPoisson = math.MaxInt32
)

// Sampler wraps a seedable random source. A Sampler is not safe for
// concurrent use; give each goroutine its own.
type Sampler struct {
	rng *rand.Rand
}

// New returns a Sampler drawing from rng.
func New(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// NewSeeded returns a Sampler over a PCG source derived from seed.
func NewSeeded(seed uint64) *Sampler {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Uint64 returns a raw 64-bit draw, used to derive child seeds.
func (s *Sampler) Uint64() uint64 { return s.rng.Uint64() }

// Float64 returns a uniform draw in [0, 1).
func (s *Sampler) Float64() float64 { return s.rng.Float64() }

// Bernoulli reports success with probability p.
func (s *Sampler) Bernoulli(p float64) bool {
	return s.rng.Float64() < p
}

// IntRange returns a uniform integer in [lo, hi]. It returns lo when hi < lo.
func (s *Sampler) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Choice returns a uniform element of vocab.
func (s *Sampler) Choice(vocab []string) string {
	return vocab[s.rng.IntN(len(vocab))]
}

// Letter returns a uniform upper-case ASCII letter.
func (s *Sampler) Letter() byte {
	return letters[s.rng.IntN(len(letters))]
}

// Poisson draws from a Poisson distribution with mean lambda.
func (s *Sampler) Poisson(lambda float64) int {
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return 0
	}
	if lambda > poissonNormalThreshold {
		v := math.Round(lambda + math.Sqrt(lambda)*s.rng.NormFloat64())
		switch {
		case v < 0:
			return 0
		case v > maxPoisson:
			return maxPoisson
		}
		return int(v)
	}
	limit := math.Exp(-lambda)
	k := 0
	for p := s.rng.Float64(); p > limit; p *= s.rng.Float64() {
		k++
	}
	return k
}

// Geometric returns the number of failed daily trials before the first
// success, each succeeding with probability p. Its mean is (1-p)/p.
func (s *Sampler) Geometric(p float64) int {
	if p >= 1 {
		return 0
	}
	if !(p > 0) {
		return maxGeometric
	}
	u := 1 - s.rng.Float64() // (0, 1]
	k := math.Floor(math.Log(u) / math.Log1p(-p))
	if k > maxGeometric {
		return maxGeometric
	}
	return int(k)
}

// DateOfBirth returns a birth date between ageMin and ageMax years
// (365-day years) before reference.
func (s *Sampler) DateOfBirth(reference time.Time, ageMin, ageMax int) time.Time {
	days := s.IntRange(domain.DaysPerYear*ageMin, domain.DaysPerYear*ageMax)
	return domain.AddDays(reference, -days)
}
