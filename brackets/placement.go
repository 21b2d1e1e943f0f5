package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/competition-system/models"
)

var ErrPlacementUndetermined = errors.New("placement cannot be determined")

// Placement is the outcome of a finalized two-sided match.
type Placement struct {
	WinnerID        int
	LoserID         int
	WinnerPlacement *int
	LoserPlacement  int
}

// MaxRound returns the highest round among matches on the same side of the bracket as round.
func MaxRound(matches []models.Match, round int) int {
	lower := round > models.LowerBracketRoundOffset
	maxRound := 0
	for i := range matches {
		if matches[i].IsLowerBracket() != lower {
			continue
		}
		if matches[i].Round > maxRound {
			maxRound = matches[i].Round
		}
	}
	return maxRound
}

// LoserPlacement is the standing of whoever loses the match at (round, position).
// Semifinal losers get 3 and 4, quarterfinal losers 5 to 8, and so on.
func LoserPlacement(maxRound, round, position int) int {
	if round >= maxRound {
		return 2
	}
	return 1<<(maxRound-round) + 1 + (position - 1)
}

// CalculatePlacement computes standings for a finalized match with both participants known.
func CalculatePlacement(matches []models.Match, finalized *models.Match, winnerID int) (*Placement, error) {
	if finalized.Participant1ID == nil || finalized.Participant2ID == nil {
		return nil, fmt.Errorf("%w: match %d has an empty slot", ErrPlacementUndetermined, finalized.ID)
	}
	loserID, ok := finalized.Opponent(winnerID)
	if !ok {
		return nil, fmt.Errorf("%w: winner %d is not in match %d", ErrPlacementUndetermined, winnerID, finalized.ID)
	}

	maxRound := MaxRound(matches, finalized.Round)
	if maxRound == 0 {
		maxRound = finalized.Round
	}

	p := &Placement{
		WinnerID:       winnerID,
		LoserID:        loserID,
		LoserPlacement: LoserPlacement(maxRound, finalized.Round, finalized.Position),
	}
	if finalized.Round >= maxRound {
		first := 1
		p.WinnerPlacement = &first
	}
	return p, nil
}
