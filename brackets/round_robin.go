package brackets

import (
	"fmt"

	"github.com/Dosada05/competition-system/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Type() models.BracketType {
	return models.BracketRoundRobin
}

// GenerateBracket pairs every participant with every other participant once.
// All matches are tagged round 1; there are no byes and nothing advances.
func (g *RoundRobinGenerator) GenerateBracket(participantIDs []int) ([]*models.BracketNode, error) {
	n := len(participantIDs)
	if n < 2 {
		return nil, fmt.Errorf("%w: round robin needs at least 2, got %d", ErrNotEnoughParticipants, n)
	}

	nodes := make([]*models.BracketNode, 0, n*(n-1)/2)
	position := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p1ID := participantIDs[i]
			p2ID := participantIDs[j]
			position++
			nodes = append(nodes, &models.BracketNode{
				Round:          1,
				Position:       position,
				Participant1ID: &p1ID,
				Participant2ID: &p2ID,
			})
		}
	}
	return nodes, nil
}
