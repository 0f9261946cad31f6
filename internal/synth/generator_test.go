package synth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"carecensus/internal/sampler"
	"carecensus/pkg/domain"
)

func testConfig(t *testing.T, seed uint64, workers int) Config {
	t.Helper()
	return Config{
		WindowStart:   domain.Date(2017, time.April, 1),
		WindowEnd:     domain.Date(2018, time.April, 1),
		Probabilities: domain.DefaultProbabilities(),
		Seed:          seed,
		Workers:       workers,
	}
}

func TestGenerateIsReproducibleAcrossWorkerCounts(t *testing.T) {
	g1, err := New(testConfig(t, 99, 1))
	require.NoError(t, err)
	g8, err := New(testConfig(t, 99, 8))
	require.NoError(t, err)

	a, err := g1.Generate(context.Background(), 60)
	require.NoError(t, err)
	b, err := g8.Generate(context.Background(), 60)
	require.NoError(t, err)
	require.Equal(t, a, b)

	g2, err := New(testConfig(t, 100, 1))
	require.NoError(t, err)
	c, err := g2.Generate(context.Background(), 60)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestGeneratedChildrenAreConsistent(t *testing.T) {
	cfg := testConfig(t, 7, 4)
	g, err := New(cfg)
	require.NoError(t, err)
	children, err := g.Generate(context.Background(), 200)
	require.NoError(t, err)
	require.Len(t, children, 200)

	ids := map[int]bool{}
	upns := map[string]bool{}
	for _, c := range children {
		require.False(t, ids[c.ID])
		require.False(t, upns[c.UPN])
		ids[c.ID], upns[c.UPN] = true, true

		age := domain.DaysBetween(c.DateOfBirth, cfg.WindowStart)
		require.GreaterOrEqual(t, age, 365)
		require.LessOrEqual(t, age, 14*365)

		require.NotEmpty(t, c.Episodes)
		require.Equal(t, domain.RNEStarted, c.Episodes[0].ReasonForNewEpisode)
		last := c.Episodes[len(c.Episodes)-1]
		require.False(t, last.EndDate.After(domain.AdultDate(c.DateOfBirth)))

		if c.MotherChildDOB != nil {
			require.Equal(t, domain.SexFemale, c.Sex)
			require.False(t, c.MotherChildDOB.Before(domain.AddDays(c.DateOfBirth, 12*365)))
			require.False(t, c.MotherChildDOB.After(domain.AddDays(c.DateOfBirth, 18*365)))
		}
		if c.UASCCeased != nil {
			require.Equal(t, domain.AddDays(c.DateOfBirth, 18*365), *c.UASCCeased)
		}
		require.Equal(t, domain.AgeInYears(c.DateOfBirth, cfg.WindowEnd) > 17, c.LeavingCare != nil)
		if c.Adoption != nil {
			require.False(t, c.Adoption.StartDate.Before(c.Episodes[0].StartDate))
			require.False(t, c.Adoption.StartDate.After(*last.EndDate))
			require.Equal(t, c.Adoption.EndDate == nil, c.Adoption.ReasonCeased == nil)
		}
		require.Equal(t, domain.DefaultPreviousPermanence, c.PreviousPermanent)
	}
}

func TestGenerateZeroChildren(t *testing.T) {
	g, err := New(testConfig(t, 1, 0))
	require.NoError(t, err)
	children, err := g.Generate(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, children)

	_, err = g.Generate(context.Background(), -1)
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestGenerateRejectsCountBeyondIdentifierSpace(t *testing.T) {
	g, err := New(testConfig(t, 1, 0))
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), sampler.MaxChildID+2)
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	var cfgErr domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "count", cfgErr.Field)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	g, err := New(testConfig(t, 1, 2))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx, 50)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 1, 1)
	cfg.WindowEnd = cfg.WindowStart
	_, err := New(cfg)
	require.ErrorIs(t, err, domain.ErrInvalidWindow)

	cfg = testConfig(t, 1, 1)
	cfg.Probabilities = domain.Probabilities{}
	_, err = New(cfg)
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	cfg = testConfig(t, 1, -1)
	_, err = New(cfg)
	require.Error(t, err)
}
