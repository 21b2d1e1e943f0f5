package brackets

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/Dosada05/competition-system/models"
)

var (
	ErrUnsupportedBracketType = errors.New("unsupported bracket type")
	ErrNotEnoughParticipants  = errors.New("not enough participants")
)

// BracketGenerator turns a participant list into bracket nodes. Implementations are pure.
type BracketGenerator interface {
	GenerateBracket(participantIDs []int) ([]*models.BracketNode, error)

	Type() models.BracketType
}

type Option func(*options)

type options struct {
	rnd *rand.Rand
}

// WithRand makes the shuffle use r instead of the package-level source.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rnd = r
	}
}

func (o *options) shuffle(ids []int) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if o.rnd != nil {
		o.rnd.Shuffle(len(ids), swap)
		return
	}
	rand.Shuffle(len(ids), swap)
}

func NewGenerator(bracketType models.BracketType, opts ...Option) (BracketGenerator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	switch bracketType {
	case models.BracketSingleElimination:
		return &SingleEliminationGenerator{opts: o}, nil
	case models.BracketDoubleElimination:
		return &DoubleEliminationGenerator{opts: o}, nil
	case models.BracketRoundRobin:
		return &RoundRobinGenerator{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBracketType, bracketType)
	}
}

func sortNodes(nodes []*models.BracketNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Round != nodes[j].Round {
			return nodes[i].Round < nodes[j].Round
		}
		return nodes[i].Position < nodes[j].Position
	})
}
