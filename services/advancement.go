package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/competition-system/metrics"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
)

// advancer pushes winners into the next round. Every write goes through exec, which must be
// the caller's transaction.
type advancer struct {
	matchRepo repositories.MatchRepository
	metrics   *metrics.Engine
	logger    *slog.Logger
}

// nextSlot returns where the winner of (round, position) plays next.
func nextSlot(round, position int) (nextRound, nextPosition, slot int) {
	slot = 2
	if position%2 == 1 {
		slot = 1
	}
	return round + 1, (position + 1) / 2, slot
}

// feederPosition is the position in the previous round that feeds slot of the match at position.
func feederPosition(position, slot int) int {
	if slot == 1 {
		return 2*position - 1
	}
	return 2 * position
}

// propagate writes winnerID into the dependent match of (round, position). A filled slot is
// never overwritten, so repeated calls are no-ops. When the write leaves the dependent match with
// a single participant and nothing can ever fill the other slot, that match is completed as a bye
// and its winner is propagated in turn. It returns every match it changed.
func (a *advancer) propagate(ctx context.Context, exec repositories.SQLExecutor, bracket *models.Bracket, round, position, winnerID int) ([]models.Match, error) {
	if bracket.Type == models.BracketRoundRobin {
		return nil, nil
	}

	var changed []models.Match
	for {
		nextRound, nextPosition, slot := nextSlot(round, position)

		next, err := a.matchRepo.GetByPosition(ctx, exec, bracket.ID, nextRound, nextPosition)
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return changed, nil
		}
		if err != nil {
			return changed, err
		}

		filled, err := a.matchRepo.FillSlot(ctx, exec, next.ID, slot, winnerID)
		if err != nil {
			return changed, err
		}
		if !filled {
			a.logger.DebugContext(ctx, "slot already filled, skipping advancement",
				slog.Int("bracket_id", bracket.ID), slog.Int("match_id", next.ID), slog.Int("slot", slot))
			return changed, nil
		}

		next, err = a.matchRepo.GetByID(ctx, exec, next.ID)
		if err != nil {
			return changed, err
		}

		sole, ok := next.SoleParticipant()
		if !ok {
			return append(changed, *next), nil
		}
		missing := 1
		if next.Participant1ID != nil {
			missing = 2
		}
		_, err = a.matchRepo.GetByPosition(ctx, exec, bracket.ID, round, feederPosition(nextPosition, missing))
		if err == nil {
			return append(changed, *next), nil
		}
		if !errors.Is(err, repositories.ErrMatchNotFound) {
			return changed, err
		}

		if err := a.completeBye(ctx, exec, next, sole); err != nil {
			return changed, err
		}
		changed = append(changed, *next)
		round, position, winnerID = next.Round, next.Position, sole
	}
}

// completeBye marks a one-sided match as won by its only participant.
func (a *advancer) completeBye(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, winnerID int) error {
	match.WinnerID = &winnerID
	match.Status = models.MatchStatusCompleted
	if err := a.matchRepo.Update(ctx, exec, match); err != nil {
		return fmt.Errorf("failed to complete bye match %d: %w", match.ID, err)
	}
	a.metrics.ByeResolved()
	a.logger.DebugContext(ctx, "bye resolved",
		slog.Int("bracket_id", match.BracketID), slog.Int("match_id", match.ID),
		slog.Int("round", match.Round), slog.Int("winner_id", winnerID))
	return nil
}
