package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// WeightedCode pairs a categorical code with its relative weight.
type WeightedCode struct {
	Code   string  `json:"code"`
	Weight float64 `json:"weight"`
}

// ProbabilityConfig is the mutable input used to build Probabilities.
// The defaults are rough estimates taken from real 903 data.
type ProbabilityConfig struct {
	IsUASC                  float64            `json:"is_uasc"`
	IsMother                float64            `json:"is_mother"`
	IsAdopted               float64            `json:"is_adopted"`
	DailyEpisodeEnding      float64            `json:"daily_episode_ending"`
	DailyEpisodeChanging    float64            `json:"daily_episode_changing"`
	AverageExtraEpisodeRate float64            `json:"average_extra_episode_rate"`
	ReviewFrequency         float64            `json:"review_frequency"`
	ReasonForEpisodeChange  map[string]float64 `json:"reason_for_episode_change"`
}

// DefaultProbabilityConfig returns the stock generation rates.
func DefaultProbabilityConfig() ProbabilityConfig {
	return ProbabilityConfig{
		IsUASC:                  0.05,
		IsMother:                0.01,
		IsAdopted:               0.03,
		DailyEpisodeEnding:      1.0 / 1000, // average care length is around 1000 days
		DailyEpisodeChanging:    1.0 / 300,  // average episode length is around 300 days
		AverageExtraEpisodeRate: 0.15,
		ReviewFrequency:         1.0 / 180,
		ReasonForEpisodeChange: map[string]float64{
			RNELegalStatusAndPlacement: 0.02,
			RNELegalStatus:             0.27,
			RNEPlacement:               0.605,
			RNECarer:                   0.1,
			RNELegalStatusAndCarer:     0.005,
		},
	}
}

// Upper bounds for the Poisson means. A child's care history is bounded by
// the days until their eighteenth birthday, so larger means only describe
// timelines that cannot exist.
const (
	MaxAverageExtraEpisodeRate = 100
	MaxReviewFrequency         = 1
)

// Probabilities is the validated, immutable rate set consumed by the
// generators. The zero value is not valid; build one with NewProbabilities.
type Probabilities struct {
	isUASC                  float64
	isMother                float64
	isAdopted               float64
	dailyEpisodeEnding      float64
	dailyEpisodeChanging    float64
	averageExtraEpisodeRate float64
	reviewFrequency         float64
	reasonForEpisodeChange  []WeightedCode
}

// NewProbabilities validates cfg and returns an immutable Probabilities.
func NewProbabilities(cfg ProbabilityConfig) (Probabilities, error) {
	for _, check := range []struct {
		field    string
		value    float64
		min, max float64
		openMin  bool
	}{
		{"is_uasc", cfg.IsUASC, 0, 1, false},
		{"is_mother", cfg.IsMother, 0, 1, false},
		{"is_adopted", cfg.IsAdopted, 0, 1, false},
		{"daily_episode_ending", cfg.DailyEpisodeEnding, 0, 1, true},
		{"daily_episode_changing", cfg.DailyEpisodeChanging, 0, 1, false},
		{"average_extra_episode_rate", cfg.AverageExtraEpisodeRate, 0, MaxAverageExtraEpisodeRate, false},
		{"review_frequency", cfg.ReviewFrequency, 0, MaxReviewFrequency, false},
	} {
		if err := checkRate(check.field, check.value, check.min, check.max, check.openMin); err != nil {
			return Probabilities{}, err
		}
	}
	weights, err := compileWeights("reason_for_episode_change", cfg.ReasonForEpisodeChange)
	if err != nil {
		return Probabilities{}, err
	}
	for _, w := range weights {
		if !isTransitionCode(w.Code) {
			return Probabilities{}, ConfigurationError{
				Field:  "reason_for_episode_change",
				Reason: fmt.Sprintf("unknown transition code %q", w.Code),
			}
		}
	}
	return Probabilities{
		isUASC:                  cfg.IsUASC,
		isMother:                cfg.IsMother,
		isAdopted:               cfg.IsAdopted,
		dailyEpisodeEnding:      cfg.DailyEpisodeEnding,
		dailyEpisodeChanging:    cfg.DailyEpisodeChanging,
		averageExtraEpisodeRate: cfg.AverageExtraEpisodeRate,
		reviewFrequency:         cfg.ReviewFrequency,
		reasonForEpisodeChange:  weights,
	}, nil
}

// DefaultProbabilities returns the validated stock rate set.
func DefaultProbabilities() Probabilities {
	p, err := NewProbabilities(DefaultProbabilityConfig())
	if err != nil {
		panic(fmt.Sprintf("default probabilities invalid: %v", err))
	}
	return p
}

// Validate reports whether p was built through NewProbabilities.
func (p Probabilities) Validate() error {
	_, err := NewProbabilities(p.Config())
	return err
}

func (p Probabilities) IsUASC() float64                  { return p.isUASC }
func (p Probabilities) IsMother() float64                { return p.isMother }
func (p Probabilities) IsAdopted() float64               { return p.isAdopted }
func (p Probabilities) DailyEpisodeEnding() float64      { return p.dailyEpisodeEnding }
func (p Probabilities) DailyEpisodeChanging() float64    { return p.dailyEpisodeChanging }
func (p Probabilities) AverageExtraEpisodeRate() float64 { return p.averageExtraEpisodeRate }
func (p Probabilities) ReviewFrequency() float64         { return p.reviewFrequency }

// ReasonForEpisodeChange returns a copy of the transition weights ordered by code.
func (p Probabilities) ReasonForEpisodeChange() []WeightedCode {
	return append([]WeightedCode(nil), p.reasonForEpisodeChange...)
}

// Config returns an editable copy of the rates.
func (p Probabilities) Config() ProbabilityConfig {
	var reasons map[string]float64
	if p.reasonForEpisodeChange != nil {
		reasons = make(map[string]float64, len(p.reasonForEpisodeChange))
		for _, w := range p.reasonForEpisodeChange {
			reasons[w.Code] = w.Weight
		}
	}
	return ProbabilityConfig{
		IsUASC:                  p.isUASC,
		IsMother:                p.isMother,
		IsAdopted:               p.isAdopted,
		DailyEpisodeEnding:      p.dailyEpisodeEnding,
		DailyEpisodeChanging:    p.dailyEpisodeChanging,
		AverageExtraEpisodeRate: p.averageExtraEpisodeRate,
		ReviewFrequency:         p.reviewFrequency,
		ReasonForEpisodeChange:  reasons,
	}
}

// MarshalJSON encodes the rates in their ProbabilityConfig shape.
func (p Probabilities) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Config())
}

// UnmarshalJSON decodes and validates a ProbabilityConfig payload.
func (p *Probabilities) UnmarshalJSON(b []byte) error {
	var cfg ProbabilityConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return err
	}
	built, err := NewProbabilities(cfg)
	if err != nil {
		return err
	}
	*p = built
	return nil
}

func checkRate(field string, v, min, max float64, openMin bool) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ConfigurationError{Field: field, Reason: "must be finite"}
	}
	if v < min || (openMin && v == min) || v > max {
		bound := "["
		if openMin {
			bound = "("
		}
		return ConfigurationError{Field: field, Reason: fmt.Sprintf("%g outside %s%g, %g]", v, bound, min, max)}
	}
	return nil
}

// CompileWeights validates a weight mapping and returns it ordered by code.
func CompileWeights(field string, weights map[string]float64) ([]WeightedCode, error) {
	return compileWeights(field, weights)
}

func compileWeights(field string, weights map[string]float64) ([]WeightedCode, error) {
	if len(weights) == 0 {
		return nil, ConfigurationError{Field: field, Reason: "no weights supplied"}
	}
	out := make([]WeightedCode, 0, len(weights))
	var total float64
	for code, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, ConfigurationError{Field: field, Reason: fmt.Sprintf("weight for %q must be a finite non-negative number", code)}
		}
		total += w
		out = append(out, WeightedCode{Code: code, Weight: w})
	}
	if total <= 0 {
		return nil, ConfigurationError{Field: field, Reason: "weights sum to zero"}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
