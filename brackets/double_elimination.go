package brackets

import (
	"math/bits"

	"github.com/Dosada05/competition-system/models"
)

type DoubleEliminationGenerator struct {
	opts *options
}

func (g *DoubleEliminationGenerator) Type() models.BracketType {
	return models.BracketDoubleElimination
}

// GenerateBracket builds the upper bracket as a single elimination tree and adds an empty
// lower bracket. Losers are not routed into the lower bracket.
func (g *DoubleEliminationGenerator) GenerateBracket(participantIDs []int) ([]*models.BracketNode, error) {
	nodes := singleEliminationNodes(participantIDs, g.opts)

	lowerRounds := ceilLog2(len(participantIDs)) - 1
	for r := 1; r <= lowerRounds; r++ {
		count := 1 << (lowerRounds - r)
		for p := 1; p <= count; p++ {
			nodes = append(nodes, &models.BracketNode{
				Round:    models.LowerBracketRoundOffset + r,
				Position: p,
			})
		}
	}

	sortNodes(nodes)
	return nodes, nil
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
