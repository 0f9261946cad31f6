package census

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"carecensus/internal/sampler"
	"carecensus/internal/synth"
	"carecensus/pkg/domain"
)

func window(t *testing.T, start, end time.Time) domain.ReportingWindow {
	t.Helper()
	w, err := domain.NewReportingWindow(start, end)
	require.NoError(t, err)
	return w
}

func episode(start, end time.Time, rne string) domain.Episode {
	return domain.Episode{
		StartDate:           start,
		EndDate:             domain.TimePtr(end),
		ReasonForNewEpisode: rne,
		LegalStatus:         "C2",
		ReasonEnd:           domain.StringPtr("E11"),
	}
}

func singleChainChild(t *testing.T) domain.Child {
	t.Helper()
	cfg := domain.DefaultProbabilityConfig()
	cfg.DailyEpisodeChanging = 0
	probs, err := domain.NewProbabilities(cfg)
	require.NoError(t, err)
	b, err := synth.NewBuilder(sampler.NewSeeded(1), probs)
	require.NoError(t, err)
	chain, err := b.Chain(domain.Date(2015, time.January, 10), 100)
	require.NoError(t, err)
	return domain.Child{ID: 1, DateOfBirth: domain.Date(2005, time.January, 1), Episodes: chain}
}

func TestSnapshotSpanningEpisodeLeavesEmptyEpisodeList(t *testing.T) {
	child := singleChainChild(t)
	require.Len(t, child.Episodes, 1)
	require.Equal(t, domain.Date(2015, time.April, 20), *child.Episodes[0].EndDate)

	got, err := Snapshot(window(t, domain.Date(2015, time.February, 1), domain.Date(2015, time.March, 1)), []domain.Child{child})
	require.NoError(t, err)
	require.Len(t, got, 1, "child overlaps the window so stays in scope")
	require.Empty(t, got[0].Episodes)
	require.Len(t, child.Episodes, 1, "input untouched")
}

func TestSnapshotFullContainmentIsIdentityOnEpisodes(t *testing.T) {
	g, err := synth.New(synth.Config{
		WindowStart:   domain.Date(2010, time.April, 1),
		WindowEnd:     domain.Date(2011, time.April, 1),
		Probabilities: domain.DefaultProbabilities(),
		Seed:          3,
	})
	require.NoError(t, err)
	children, err := g.Generate(context.Background(), 30)
	require.NoError(t, err)

	w := window(t, domain.Date(2009, time.January, 1), domain.Date(2040, time.January, 1))
	got, err := Snapshot(w, children)
	require.NoError(t, err)
	require.Len(t, got, len(children))
	for i := range got {
		require.Equal(t, children[i].Episodes, got[i].Episodes)
		require.Equal(t, children[i].Reviews, got[i].Reviews)
	}
}

func TestSnapshotExclusionBoundary(t *testing.T) {
	start, end := domain.Date(2017, time.April, 1), domain.Date(2018, time.April, 1)
	w := window(t, start, end)
	endsAtStart := domain.Child{ID: 1, Episodes: []domain.Episode{episode(domain.Date(2016, time.May, 1), start, domain.RNEStarted)}}
	startsAtEnd := domain.Child{ID: 2, Episodes: []domain.Episode{episode(end, domain.Date(2018, time.June, 1), domain.RNEStarted)}}
	noEpisodes := domain.Child{ID: 3}
	inside := domain.Child{ID: 4, Episodes: []domain.Episode{episode(domain.AddDays(start, 1), domain.AddDays(start, 10), domain.RNEStarted)}}

	got, err := Snapshot(w, []domain.Child{endsAtStart, startsAtEnd, noEpisodes, inside})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 4, got[0].ID)
}

func TestSnapshotOpenEpisodeExtendsSpan(t *testing.T) {
	w := window(t, domain.Date(2017, time.April, 1), domain.Date(2018, time.April, 1))
	open := domain.Episode{StartDate: domain.Date(2016, time.January, 1), ReasonForNewEpisode: domain.RNEStarted}
	got, err := Snapshot(w, []domain.Child{{ID: 1, Episodes: []domain.Episode{open}}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Empty(t, got[0].Episodes)
}

func TestSnapshotClearsFutureFacts(t *testing.T) {
	start, end := domain.Date(2017, time.April, 1), domain.Date(2018, time.April, 1)
	w := window(t, start, end)

	first := episode(domain.Date(2017, time.June, 1), domain.Date(2017, time.September, 1), domain.RNEStarted)
	first.ReasonEnd = domain.StringPtr(domain.ReasonEndTransition)
	second := episode(domain.Date(2017, time.September, 1), domain.Date(2018, time.May, 1), domain.RNEPlacement)
	second.ReasonPlaceChange = domain.StringPtr("CARPL")
	child := domain.Child{
		ID:             9,
		Sex:            domain.SexFemale,
		DateOfBirth:    domain.Date(2000, time.January, 1),
		Episodes:       []domain.Episode{first, second},
		Reviews:        []domain.Review{{Date: domain.Date(2017, time.July, 1), Code: "PN1"}, {Date: domain.Date(2018, time.April, 20), Code: "PN2"}},
		MotherChildDOB: domain.TimePtr(end),
		LeavingCare:    &domain.LeavingCareData{InTouch: "YES"},
	}
	before := child.Clone()

	got, err := Snapshot(w, []domain.Child{child})
	require.NoError(t, err)
	require.Len(t, got, 1)
	c := got[0]

	require.Nil(t, c.MotherChildDOB, "motherhood on the window end is in the future")
	require.NotNil(t, c.LeavingCare, "child is over 17 at the window end")
	require.Len(t, c.Episodes, 2)
	require.Equal(t, domain.Date(2017, time.September, 1), *c.Episodes[0].EndDate)
	require.Nil(t, c.Episodes[1].EndDate)
	require.Nil(t, c.Episodes[1].ReasonEnd)
	require.Nil(t, c.Episodes[1].ReasonPlaceChange)
	require.Len(t, c.Reviews, 1)

	require.Equal(t, before, child)
}

func TestSnapshotDropsLeavingCareForYoungChildren(t *testing.T) {
	w := window(t, domain.Date(2017, time.April, 1), domain.Date(2018, time.April, 1))
	child := domain.Child{
		DateOfBirth: domain.Date(2001, time.April, 2),
		Episodes:    []domain.Episode{episode(domain.Date(2017, time.May, 1), domain.Date(2017, time.June, 1), domain.RNEStarted)},
		LeavingCare: &domain.LeavingCareData{InTouch: "NO"},
	}
	got, err := Snapshot(w, []domain.Child{child})
	require.NoError(t, err)
	require.Nil(t, got[0].LeavingCare)
}

func TestSnapshotAdoption(t *testing.T) {
	start, end := domain.Date(2017, time.April, 1), domain.Date(2018, time.April, 1)
	w := window(t, start, end)
	base := domain.Child{Episodes: []domain.Episode{episode(domain.Date(2016, time.May, 1), domain.Date(2018, time.June, 1), domain.RNEStarted)}}

	cases := []struct {
		name      string
		adoption  domain.AdoptionData
		wantNil   bool
		wantEnded bool
	}{
		{
			name:     "starts inside ends after",
			adoption: domain.AdoptionData{StartDate: domain.Date(2017, time.May, 1), EndDate: domain.TimePtr(domain.Date(2018, time.May, 1)), ReasonCeased: domain.StringPtr("E11")},
		},
		{
			name:      "starts and ends inside",
			adoption:  domain.AdoptionData{StartDate: domain.Date(2017, time.May, 1), EndDate: domain.TimePtr(domain.Date(2017, time.August, 1)), ReasonCeased: domain.StringPtr("E11")},
			wantEnded: true,
		},
		{
			name:      "starts before ends inside",
			adoption:  domain.AdoptionData{StartDate: domain.Date(2016, time.June, 1), EndDate: domain.TimePtr(domain.Date(2017, time.August, 1)), ReasonCeased: domain.StringPtr("RD1")},
			wantEnded: true,
		},
		{
			name:     "spans the window",
			adoption: domain.AdoptionData{StartDate: domain.Date(2016, time.June, 1)},
			wantNil:  true,
		},
		{
			name:     "starts after",
			adoption: domain.AdoptionData{StartDate: domain.Date(2018, time.May, 1)},
			wantNil:  true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			child := base.Clone()
			a := tc.adoption
			child.Adoption = &a
			got, err := Snapshot(w, []domain.Child{child})
			require.NoError(t, err)
			require.Len(t, got, 1)
			if tc.wantNil {
				require.Nil(t, got[0].Adoption)
				return
			}
			require.NotNil(t, got[0].Adoption)
			require.Equal(t, tc.wantEnded, got[0].Adoption.EndDate != nil)
			require.Equal(t, tc.wantEnded, got[0].Adoption.ReasonCeased != nil)
		})
	}
}

func TestSnapshotRejectsInvalidWindow(t *testing.T) {
	d := domain.Date(2018, time.April, 1)
	_, err := Snapshot(domain.ReportingWindow{Start: d, End: d}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidWindow)
}
