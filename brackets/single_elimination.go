package brackets

import (
	"github.com/Dosada05/competition-system/models"
)

type SingleEliminationGenerator struct {
	opts *options
}

func NewSingleEliminationGenerator(opts ...Option) BracketGenerator {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &SingleEliminationGenerator{opts: o}
}

func (g *SingleEliminationGenerator) Type() models.BracketType {
	return models.BracketSingleElimination
}

// GenerateBracket lays out an elimination tree. The slot count is rounded up to the next even
// number, not to a power of two, so byes only appear when the raw count is odd. Later rounds
// halve with ceiling division, which can leave one-sided matches that resolve as byes.
func (g *SingleEliminationGenerator) GenerateBracket(participantIDs []int) ([]*models.BracketNode, error) {
	return singleEliminationNodes(participantIDs, g.opts), nil
}

// TotalSlots is the number of round-1 slots for n participants.
func TotalSlots(n int) int {
	if n <= 1 {
		return 2
	}
	if n%2 == 1 {
		return n + 1
	}
	return n
}

// RoundCount is the number of ceiling halvings needed to get from slots down to one.
func RoundCount(slots int) int {
	rounds := 0
	for c := slots; c > 1; c = (c + 1) / 2 {
		rounds++
	}
	return rounds
}

func singleEliminationNodes(participantIDs []int, opts *options) []*models.BracketNode {
	n := len(participantIDs)
	slots := make([]*int, TotalSlots(n))

	shuffled := make([]int, n)
	copy(shuffled, participantIDs)
	if n > 1 {
		opts.shuffle(shuffled)
	}
	for i := range shuffled {
		id := shuffled[i]
		slots[i] = &id
	}

	rounds := RoundCount(len(slots))
	nodes := make([]*models.BracketNode, 0, len(slots))

	previous := make([]*models.BracketNode, 0, len(slots)/2)
	for i := 0; i < len(slots); i += 2 {
		if slots[i] == nil && slots[i+1] == nil && n > 0 {
			continue
		}
		node := &models.BracketNode{
			Round:          1,
			Position:       i/2 + 1,
			Participant1ID: slots[i],
			Participant2ID: slots[i+1],
		}
		previous = append(previous, node)
		nodes = append(nodes, node)
	}

	for r := 2; r <= rounds; r++ {
		count := (len(previous) + 1) / 2
		current := make([]*models.BracketNode, 0, count)
		for p := 1; p <= count; p++ {
			node := &models.BracketNode{Round: r, Position: p}
			node.Children = append(node.Children, previous[2*p-2])
			if 2*p-1 < len(previous) {
				node.Children = append(node.Children, previous[2*p-1])
			}
			current = append(current, node)
			nodes = append(nodes, node)
		}
		previous = current
	}

	sortNodes(nodes)
	return nodes
}
