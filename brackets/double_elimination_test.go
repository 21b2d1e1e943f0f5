package brackets

import (
	"testing"

	"github.com/Dosada05/competition-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleElimination_LowerBracketShape(t *testing.T) {
	testCases := []struct {
		name  string
		n     int
		lower map[int]int
	}{
		{name: "2 entries", n: 2, lower: map[int]int{}},
		{name: "4 entries", n: 4, lower: map[int]int{101: 1}},
		{name: "8 entries", n: 8, lower: map[int]int{101: 2, 102: 1}},
		{name: "5 entries", n: 5, lower: map[int]int{101: 2, 102: 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewGenerator(models.BracketDoubleElimination, seeded())
			require.NoError(t, err)

			nodes, err := g.GenerateBracket(participants(tc.n))
			require.NoError(t, err)

			lower := make(map[int]int)
			upper := 0
			for _, node := range nodes {
				if node.IsLowerBracket() {
					lower[node.Round]++
					assert.Zero(t, node.FilledSlots())
				} else {
					upper++
				}
			}
			assert.Equal(t, tc.lower, lower)

			single, err := NewSingleEliminationGenerator(seeded()).GenerateBracket(participants(tc.n))
			require.NoError(t, err)
			assert.Equal(t, len(single), upper)
		})
	}
}
