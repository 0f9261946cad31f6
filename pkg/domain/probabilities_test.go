package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProbabilitiesDefaults(t *testing.T) {
	p, err := NewProbabilities(DefaultProbabilityConfig())
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	require.InDelta(t, 0.001, p.DailyEpisodeEnding(), 1e-12)

	codes := make([]string, 0)
	for _, w := range p.ReasonForEpisodeChange() {
		codes = append(codes, w.Code)
	}
	require.Equal(t, []string{"B", "L", "P", "T", "U"}, codes)
}

func TestNewProbabilitiesRejectsBadWeights(t *testing.T) {
	cases := map[string]map[string]float64{
		"empty":        {},
		"nil":          nil,
		"zero sum":     {"L": 0, "P": 0},
		"negative":     {"L": -1, "P": 2},
		"nan":          {"L": math.NaN()},
		"unknown code": {"S": 1},
	}
	for name, weights := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultProbabilityConfig()
			cfg.ReasonForEpisodeChange = weights
			_, err := NewProbabilities(cfg)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidConfiguration))
			var cfgErr ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, "reason_for_episode_change", cfgErr.Field)
		})
	}
}

func TestNewProbabilitiesRejectsOutOfRangeRates(t *testing.T) {
	mutations := map[string]func(*ProbabilityConfig){
		"ending zero":     func(c *ProbabilityConfig) { c.DailyEpisodeEnding = 0 },
		"ending above 1":  func(c *ProbabilityConfig) { c.DailyEpisodeEnding = 1.5 },
		"changing < 0":    func(c *ProbabilityConfig) { c.DailyEpisodeChanging = -0.1 },
		"uasc above 1":    func(c *ProbabilityConfig) { c.IsUASC = 2 },
		"extra rate inf":  func(c *ProbabilityConfig) { c.AverageExtraEpisodeRate = math.Inf(1) },
		"review negative": func(c *ProbabilityConfig) { c.ReviewFrequency = -1 },
		"extra rate huge": func(c *ProbabilityConfig) { c.AverageExtraEpisodeRate = 1e20 },
		"extra rate cap":  func(c *ProbabilityConfig) { c.AverageExtraEpisodeRate = MaxAverageExtraEpisodeRate + 0.5 },
		"review huge":     func(c *ProbabilityConfig) { c.ReviewFrequency = 1e19 },
		"review above 1":  func(c *ProbabilityConfig) { c.ReviewFrequency = 1.01 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultProbabilityConfig()
			mutate(&cfg)
			_, err := NewProbabilities(cfg)
			require.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestNewProbabilitiesAcceptsRateCaps(t *testing.T) {
	cfg := DefaultProbabilityConfig()
	cfg.AverageExtraEpisodeRate = MaxAverageExtraEpisodeRate
	cfg.ReviewFrequency = MaxReviewFrequency
	_, err := NewProbabilities(cfg)
	require.NoError(t, err)
}

func TestProbabilitiesJSONRejectsHugeRates(t *testing.T) {
	var p Probabilities
	err := json.Unmarshal([]byte(`{"is_uasc":0.05,"daily_episode_ending":0.001,"average_extra_episode_rate":1e20,"review_frequency":0.005,"reason_for_episode_change":{"P":1}}`), &p)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestProbabilitiesZeroValueInvalid(t *testing.T) {
	require.ErrorIs(t, Probabilities{}.Validate(), ErrInvalidConfiguration)
}

func TestProbabilitiesImmutableAfterConstruction(t *testing.T) {
	cfg := DefaultProbabilityConfig()
	p, err := NewProbabilities(cfg)
	require.NoError(t, err)

	cfg.ReasonForEpisodeChange["L"] = 1000
	weights := p.ReasonForEpisodeChange()
	weights[0].Weight = 42

	for _, w := range p.ReasonForEpisodeChange() {
		require.NotEqual(t, 42.0, w.Weight)
		if w.Code == "L" {
			require.InDelta(t, 0.27, w.Weight, 1e-12)
		}
	}
}

func TestProbabilitiesJSONRoundTripValidates(t *testing.T) {
	p := DefaultProbabilities()
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded Probabilities
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, p, decoded)

	var bad Probabilities
	err = json.Unmarshal([]byte(`{"daily_episode_ending":0.1,"reason_for_episode_change":{}}`), &bad)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}
