package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/models"
)

func TestNextSlot(t *testing.T) {
	testCases := []struct {
		round, position          int
		nextRound, nextPos, slot int
	}{
		{round: 1, position: 1, nextRound: 2, nextPos: 1, slot: 1},
		{round: 1, position: 2, nextRound: 2, nextPos: 1, slot: 2},
		{round: 1, position: 3, nextRound: 2, nextPos: 2, slot: 1},
		{round: 2, position: 4, nextRound: 3, nextPos: 2, slot: 2},
		{round: 101, position: 1, nextRound: 102, nextPos: 1, slot: 1},
	}
	for _, tc := range testCases {
		nr, np, slot := nextSlot(tc.round, tc.position)
		assert.Equal(t, tc.nextRound, nr)
		assert.Equal(t, tc.nextPos, np)
		assert.Equal(t, tc.slot, slot)
		assert.Equal(t, tc.position, feederPosition(np, slot))
	}
}

func TestPropagate_IsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.create(t, models.BracketSingleElimination, 1, 2, 3, 4)
	semi := findMatch(t, b.Matches, 1, 1)
	adv := f.deps.advancer()

	winner := *semi.Participant1ID
	changed, err := adv.propagate(ctx, f.db, b, semi.Round, semi.Position, winner)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, winner, *changed[0].Participant1ID)

	changed, err = adv.propagate(ctx, f.db, b, semi.Round, semi.Position, winner)
	require.NoError(t, err)
	assert.Empty(t, changed)

	_, err = adv.propagate(ctx, f.db, b, semi.Round, semi.Position, *semi.Participant2ID)
	require.NoError(t, err)
	final := f.matchAt(t, b.ID, 2, 1)
	assert.Equal(t, winner, *final.Participant1ID, "filled slots are never overwritten")
	assert.Nil(t, final.Participant2ID)
}

func TestPropagate_FinalAndRoundRobinAreNoOps(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	adv := f.deps.advancer()

	b := f.create(t, models.BracketSingleElimination, 1, 2)
	changed, err := adv.propagate(ctx, f.db, b, 1, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, changed)

	rr := f.create(t, models.BracketRoundRobin, 1, 2, 3, 4)
	changed, err = adv.propagate(ctx, f.db, rr, 1, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, changed)
	for _, m := range f.mustList(t, rr.ID) {
		assert.Equal(t, 2, m.FilledSlots())
		assert.Nil(t, m.WinnerID)
	}
}
