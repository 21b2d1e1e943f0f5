package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/db/dbtest"
	"github.com/Dosada05/competition-system/events"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
	"github.com/Dosada05/competition-system/utils"
)

type failingResults struct {
	repositories.ResultRepository
	err error
}

func (r failingResults) Upsert(context.Context, repositories.SQLExecutor, *models.Result) error {
	return r.err
}

func TestSubmitResult_FullEliminationPlacements(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2, 3, 4, 5, 6, 7, 8)
	require.Len(t, b.Matches, 7)

	for round := 1; round <= 3; round++ {
		matches, err := f.matchSvc.ListMatches(ctx, b.ID)
		require.NoError(t, err)
		for _, m := range matches {
			if m.Round == round {
				f.win(t, m)
			}
		}
	}

	standings, err := f.matchSvc.ListStandings(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, standings, 8)
	seen := make(map[int]bool)
	for i, s := range standings {
		assert.Equal(t, i+1, s.Placement)
		assert.False(t, seen[s.ParticipantID], "participant %d placed twice", s.ParticipantID)
		seen[s.ParticipantID] = true
	}

	final := f.matchAt(t, b.ID, 3, 1)
	assert.Equal(t, *final.WinnerID, standings[0].ParticipantID)
	assert.Equal(t, *final.Participant2ID, standings[1].ParticipantID)
	assert.Equal(t, 7.0, testutil.ToFloat64(f.metrics.ResultsSubmitted.WithLabelValues("direct")))
	assert.Zero(t, testutil.ToFloat64(f.metrics.PlacementFailures))
}

func TestSubmitResult_PlacementFailureKeepsWinner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2, 3, 4)
	semi := findMatch(t, b.Matches, 1, 1)

	deps := f.deps
	deps.Results = failingResults{ResultRepository: f.deps.Results, err: errors.New("disk full")}
	svc := NewMatchService(deps)

	got, err := svc.SubmitResult(ctx, SubmitResultInput{
		BracketID: b.ID,
		MatchID:   semi.ID,
		WinnerID:  *semi.Participant1ID,
		Submitter: admin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, got.Status)
	assert.Equal(t, *semi.Participant1ID, *got.WinnerID)

	final := f.matchAt(t, b.ID, 2, 1)
	require.NotNil(t, final.Participant1ID)
	assert.Equal(t, *semi.Participant1ID, *final.Participant1ID)

	results, err := f.matchSvc.ListMatchResults(ctx, b.ID, semi.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PlacementFailures))
}

func TestSubmitResult_DirectWritesScoresAndAdvances(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2, 3, 4)
	semi := findMatch(t, b.Matches, 1, 2)
	f.recorder.Reset()

	winner := *semi.Participant2ID
	got, err := f.matchSvc.SubmitResult(ctx, SubmitResultInput{
		BracketID: b.ID,
		MatchID:   semi.ID,
		WinnerID:  winner,
		Score:     &models.MatchScore{Participant1: 2, Participant2: 5},
		Submitter: models.Submitter{UserID: 9, Role: models.RoleChiefJudge},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, got.Status)
	assert.True(t, got.Metadata.IsConfirmed)
	assert.False(t, got.Metadata.IsPending)
	assert.Equal(t, 9, *got.Metadata.SubmittedBy)

	final := f.matchAt(t, b.ID, 2, 1)
	assert.Nil(t, final.Participant1ID)
	require.NotNil(t, final.Participant2ID)
	assert.Equal(t, winner, *final.Participant2ID)

	results, err := f.matchSvc.ListMatchResults(ctx, b.ID, semi.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		if r.ParticipantID == winner {
			assert.Equal(t, 5, r.Points)
			assert.Equal(t, 2, r.OpponentPoints)
			assert.Nil(t, r.Placement)
			continue
		}
		assert.Equal(t, 2, r.Points)
		assert.Equal(t, 5, r.OpponentPoints)
		require.NotNil(t, r.Placement)
		assert.Equal(t, 4, *r.Placement)
	}

	assert.Equal(t, []events.Topic{events.TopicMatchUpdate, events.TopicMatchUpdate}, f.recorder.Topics())
}

func TestSubmitResult_ProvisionalThenApprove(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2, 3, 4)
	semi := findMatch(t, b.Matches, 1, 1)
	winner := *semi.Participant1ID

	pending, err := f.matchSvc.SubmitResult(ctx, SubmitResultInput{
		BracketID: b.ID,
		MatchID:   semi.ID,
		WinnerID:  winner,
		Score:     &models.MatchScore{Participant1: 1, Participant2: 0},
		Submitter: judge,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusInProgress, pending.Status)
	assert.Nil(t, pending.WinnerID)
	assert.True(t, pending.Metadata.IsPending)
	require.NotNil(t, pending.Metadata.PendingResult)
	assert.Equal(t, winner, pending.Metadata.PendingResult.WinnerID)
	assert.Equal(t, judge.UserID, pending.Metadata.PendingResult.SubmittedBy)

	final := f.matchAt(t, b.ID, 2, 1)
	assert.Nil(t, final.Participant1ID, "provisional results do not advance")
	results, err := f.matchSvc.ListResults(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	f.recorder.Reset()
	approved, err := f.matchSvc.ApproveResult(ctx, ApproveInput{BracketID: b.ID, MatchID: semi.ID, Approver: admin})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, approved.Status)
	require.NotNil(t, approved.WinnerID)
	assert.Equal(t, winner, *approved.WinnerID)
	assert.Equal(t, 1, approved.Score.Participant1)
	assert.False(t, approved.Metadata.IsPending)
	assert.True(t, approved.Metadata.IsConfirmed)
	assert.Nil(t, approved.Metadata.PendingResult)
	assert.Equal(t, admin.UserID, *approved.Metadata.ApprovedBy)
	assert.NotNil(t, approved.Metadata.ApprovedAt)
	assert.Equal(t, judge.UserID, *approved.Metadata.SubmittedBy)

	final = f.matchAt(t, b.ID, 2, 1)
	require.NotNil(t, final.Participant1ID)
	assert.Equal(t, winner, *final.Participant1ID)

	standings, err := f.matchSvc.ListStandings(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 3, standings[0].Placement)

	assert.Equal(t, events.TopicMatchApproved, f.recorder.Topics()[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ResultsSubmitted.WithLabelValues("provisional")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ResultsSubmitted.WithLabelValues("approved")))

	_, err = f.matchSvc.ApproveResult(ctx, ApproveInput{BracketID: b.ID, MatchID: semi.ID, Approver: admin})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitResult_LatestProvisionalWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2)
	m := b.Matches[0]

	for _, winner := range []int{*m.Participant1ID, *m.Participant2ID} {
		_, err := f.matchSvc.SubmitResult(ctx, SubmitResultInput{BracketID: b.ID, MatchID: m.ID, WinnerID: winner, Submitter: judge})
		require.NoError(t, err)
	}

	got, err := f.matchSvc.GetMatch(ctx, b.ID, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Metadata.PendingResult)
	assert.Equal(t, *m.Participant2ID, got.Metadata.PendingResult.WinnerID)
}

func TestSubmitResult_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2, 3, 4)
	semi := findMatch(t, b.Matches, 1, 1)
	final := findMatch(t, b.Matches, 2, 1)

	testCases := []struct {
		name string
		in   SubmitResultInput
		kind error
	}{
		{
			name: "unknown role",
			in:   SubmitResultInput{BracketID: b.ID, MatchID: semi.ID, WinnerID: *semi.Participant1ID, Submitter: models.Submitter{UserID: 3, Role: "spectator"}},
			kind: ErrValidationFailed,
		},
		{
			name: "winner outside the match",
			in:   SubmitResultInput{BracketID: b.ID, MatchID: semi.ID, WinnerID: 999, Submitter: admin},
			kind: ErrValidationFailed,
		},
		{
			name: "missing winner",
			in:   SubmitResultInput{BracketID: b.ID, MatchID: semi.ID, Submitter: admin},
			kind: ErrValidationFailed,
		},
		{
			name: "final still waiting for participants",
			in:   SubmitResultInput{BracketID: b.ID, MatchID: final.ID, WinnerID: *semi.Participant1ID, Submitter: admin},
			kind: ErrInvalidState,
		},
		{
			name: "unknown match",
			in:   SubmitResultInput{BracketID: b.ID, MatchID: 99999, WinnerID: 1, Submitter: admin},
			kind: ErrNotFound,
		},
		{
			name: "unknown bracket",
			in:   SubmitResultInput{BracketID: 99999, MatchID: semi.ID, WinnerID: 1, Submitter: admin},
			kind: ErrNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.matchSvc.SubmitResult(ctx, tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}

	f.win(t, semi)
	_, err := f.matchSvc.SubmitResult(ctx, SubmitResultInput{BracketID: b.ID, MatchID: semi.ID, WinnerID: *semi.Participant2ID, Submitter: admin})
	assert.ErrorIs(t, err, ErrInvalidState)

	got := f.matchAt(t, b.ID, 1, 1)
	assert.Equal(t, *semi.Participant1ID, *got.WinnerID, "a completed result is never overwritten")
}

func TestSubmitResult_MatchOfAnotherBracket(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.create(t, models.BracketSingleElimination, 1, 2)

	otherCategory := dbtest.SeedCategory(t, f.db, f.competitionID, "-90kg")
	second, err := f.bracketSvc.CreateBracket(ctx, CreateBracketInput{
		CompetitionID:  f.competitionID,
		CategoryID:     utils.Ptr(otherCategory),
		Type:           models.BracketSingleElimination,
		ParticipantIDs: []int{3, 4},
	})
	require.NoError(t, err)

	foreign := second.Matches[0]
	_, err = f.matchSvc.SubmitResult(ctx, SubmitResultInput{
		BracketID: first.ID,
		MatchID:   foreign.ID,
		WinnerID:  *foreign.Participant1ID,
		Submitter: admin,
	})
	require.ErrorIs(t, err, ErrNotFound)

	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, first.ID, engineErr.BracketID)
	assert.Equal(t, foreign.ID, engineErr.MatchID)

	_, err = f.matchSvc.GetMatch(ctx, first.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmResult(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2)
	m := b.Matches[0]

	_, err := f.matchSvc.ConfirmResult(ctx, ConfirmInput{BracketID: b.ID, MatchID: m.ID, Submitter: judge})
	assert.ErrorIs(t, err, ErrInvalidState, "scheduled matches cannot be confirmed")

	f.win(t, m)
	f.recorder.Reset()

	got, err := f.matchSvc.ConfirmResult(ctx, ConfirmInput{BracketID: b.ID, MatchID: m.ID, Submitter: judge, Notes: "clean fight"})
	require.NoError(t, err)
	require.Len(t, got.Metadata.Confirmations, 1)
	assert.Equal(t, judge.UserID, got.Metadata.Confirmations[0].SubmitterID)
	assert.Equal(t, "clean fight", got.Metadata.Confirmations[0].Notes)
	assert.Equal(t, models.MatchStatusCompleted, got.Status)

	_, err = f.matchSvc.ConfirmResult(ctx, ConfirmInput{BracketID: b.ID, MatchID: m.ID, Submitter: judge})
	assert.ErrorIs(t, err, ErrInvalidState)

	other := models.Submitter{UserID: 5, Role: models.RoleJudge}
	got, err = f.matchSvc.ConfirmResult(ctx, ConfirmInput{BracketID: b.ID, MatchID: m.ID, Submitter: other})
	require.NoError(t, err)
	assert.Len(t, got.Metadata.Confirmations, 2)

	assert.Equal(t, []events.Topic{events.TopicMatchConfirmed, events.TopicMatchConfirmed}, f.recorder.Topics())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Confirmations))
}

func TestApproveResult_WithoutPending(t *testing.T) {
	f := setup(t)
	b := f.create(t, models.BracketSingleElimination, 1, 2)

	_, err := f.matchSvc.ApproveResult(context.Background(), ApproveInput{BracketID: b.ID, MatchID: b.Matches[0].ID, Approver: admin})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRoundRobin_RecordsPointsWithoutPlacement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketRoundRobin, 1, 2, 3)
	m := b.Matches[0]

	_, err := f.matchSvc.SubmitResult(ctx, SubmitResultInput{
		BracketID: b.ID,
		MatchID:   m.ID,
		WinnerID:  *m.Participant1ID,
		Score:     &models.MatchScore{Participant1: 3, Participant2: 1},
		Submitter: admin,
	})
	require.NoError(t, err)

	results, err := f.matchSvc.ListMatchResults(ctx, b.ID, m.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Nil(t, r.Placement)
	}

	standings, err := f.matchSvc.ListStandings(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, standings)

	for _, other := range f.mustList(t, b.ID)[1:] {
		assert.Equal(t, models.MatchStatusScheduled, other.Status, "round robin matches never advance")
	}
}

func TestTeamBracket_HasNoResultRows(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	teamCompetition := dbtest.SeedCompetition(t, f.db, "Relay Cup", true)
	dbtest.SeedTeams(t, f.db, teamCompetition, 11, 12)

	b, err := f.bracketSvc.GenerateForCategory(ctx, GenerateInput{CompetitionID: teamCompetition, Type: models.BracketSingleElimination})
	require.NoError(t, err)

	got := f.win(t, b.Matches[0])
	assert.Equal(t, models.MatchStatusCompleted, got.Status)

	results, err := f.matchSvc.ListResults(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatchTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2, 3, 4)
	semi := findMatch(t, b.Matches, 1, 1)
	final := findMatch(t, b.Matches, 2, 1)

	at := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	scheduled, err := f.matchSvc.ScheduleMatch(ctx, b.ID, semi.ID, at)
	require.NoError(t, err)
	require.NotNil(t, scheduled.ScheduledAt)
	assert.True(t, at.Equal(*scheduled.ScheduledAt))

	_, err = f.matchSvc.ScheduleMatch(ctx, b.ID, semi.ID, time.Time{})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.matchSvc.StartMatch(ctx, b.ID, final.ID)
	assert.ErrorIs(t, err, ErrInvalidState, "final has empty slots")

	started, err := f.matchSvc.StartMatch(ctx, b.ID, semi.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusInProgress, started.Status)

	_, err = f.matchSvc.StartMatch(ctx, b.ID, semi.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.matchSvc.ScheduleMatch(ctx, b.ID, semi.ID, at)
	assert.ErrorIs(t, err, ErrInvalidState)

	cancelled, err := f.matchSvc.CancelMatch(ctx, b.ID, semi.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCancelled, cancelled.Status)

	_, err = f.matchSvc.CancelMatch(ctx, b.ID, semi.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.matchSvc.SubmitResult(ctx, SubmitResultInput{BracketID: b.ID, MatchID: semi.ID, WinnerID: *semi.Participant1ID, Submitter: admin})
	assert.ErrorIs(t, err, ErrInvalidState)

	other := findMatch(t, b.Matches, 1, 2)
	f.win(t, other)
	_, err = f.matchSvc.CancelMatch(ctx, b.ID, other.ID)
	assert.ErrorIs(t, err, ErrInvalidState, "completed matches cannot be cancelled")
}

func (f *fixture) mustList(t *testing.T, bracketID int) []models.Match {
	t.Helper()
	matches, err := f.matchSvc.ListMatches(context.Background(), bracketID)
	require.NoError(t, err)
	return matches
}
