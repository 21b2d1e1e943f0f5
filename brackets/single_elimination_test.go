package brackets

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/Dosada05/competition-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func participants(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func seeded() Option {
	return WithRand(rand.New(rand.NewPCG(7, 11)))
}

func countByRound(nodes []*models.BracketNode) map[int]int {
	counts := make(map[int]int)
	for _, n := range nodes {
		counts[n.Round]++
	}
	return counts
}

func TestTotalSlotsAndRounds(t *testing.T) {
	testCases := []struct {
		n      int
		slots  int
		rounds int
	}{
		{n: 0, slots: 2, rounds: 1},
		{n: 1, slots: 2, rounds: 1},
		{n: 2, slots: 2, rounds: 1},
		{n: 3, slots: 4, rounds: 2},
		{n: 5, slots: 6, rounds: 3},
		{n: 6, slots: 6, rounds: 3},
		{n: 8, slots: 8, rounds: 3},
		{n: 9, slots: 10, rounds: 4},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.slots, TotalSlots(tc.n), "slots for %d", tc.n)
		assert.Equal(t, tc.rounds, RoundCount(TotalSlots(tc.n)), "rounds for %d", tc.n)
	}
}

func TestSingleElimination_EmptyAndSingle(t *testing.T) {
	g := NewSingleEliminationGenerator(seeded())

	nodes, err := g.GenerateBracket(nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Nil(t, nodes[0].Participant1ID)
	assert.Nil(t, nodes[0].Participant2ID)

	nodes, err = g.GenerateBracket([]int{42})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.NotNil(t, nodes[0].Participant1ID)
	assert.Equal(t, 42, *nodes[0].Participant1ID)
	assert.Nil(t, nodes[0].Participant2ID)
}

func TestSingleElimination_MatchCountForPowerOfTwoSlots(t *testing.T) {
	for _, n := range []int{2, 3, 4, 7, 8, 15, 16} {
		nodes, err := NewSingleEliminationGenerator(seeded()).GenerateBracket(participants(n))
		require.NoError(t, err)
		assert.Len(t, nodes, TotalSlots(n)-1, "n=%d", n)
	}
}

func TestSingleElimination_CeilHalvingLayout(t *testing.T) {
	nodes, err := NewSingleEliminationGenerator(seeded()).GenerateBracket(participants(5))
	require.NoError(t, err)

	assert.Equal(t, map[int]int{1: 3, 2: 2, 3: 1}, countByRound(nodes))

	var lonely *models.BracketNode
	for _, n := range nodes {
		if n.Round == 2 && n.Position == 2 {
			lonely = n
		}
	}
	require.NotNil(t, lonely)
	assert.Len(t, lonely.Children, 1)
}

func TestSingleElimination_OddCountHasOneBye(t *testing.T) {
	for _, n := range []int{3, 5, 7, 9, 11} {
		nodes, err := NewSingleEliminationGenerator(seeded()).GenerateBracket(participants(n))
		require.NoError(t, err)

		byes := 0
		var seen []int
		for _, node := range nodes {
			if node.Round != 1 {
				assert.Nil(t, node.Participant1ID)
				assert.Nil(t, node.Participant2ID)
				continue
			}
			if node.FilledSlots() == 1 {
				byes++
			}
			for _, p := range []*int{node.Participant1ID, node.Participant2ID} {
				if p != nil {
					seen = append(seen, *p)
				}
			}
		}
		assert.Equal(t, 1, byes, "n=%d", n)
		sort.Ints(seen)
		assert.Equal(t, participants(n), seen, "every participant placed exactly once")
	}
}

func TestSingleElimination_ByeIsInLastPair(t *testing.T) {
	nodes, err := NewSingleEliminationGenerator(seeded()).GenerateBracket(participants(7))
	require.NoError(t, err)

	last := nodes[3]
	require.Equal(t, 1, last.Round)
	require.Equal(t, 4, last.Position)
	assert.NotNil(t, last.Participant1ID)
	assert.Nil(t, last.Participant2ID)
}

func TestSingleElimination_DoesNotMutateInput(t *testing.T) {
	in := participants(6)
	_, err := NewSingleEliminationGenerator().GenerateBracket(in)
	require.NoError(t, err)
	assert.Equal(t, participants(6), in)
}

func TestNewGenerator_Unsupported(t *testing.T) {
	_, err := NewGenerator(models.BracketType("SWISS"))
	assert.ErrorIs(t, err, ErrUnsupportedBracketType)
}
