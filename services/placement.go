package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/competition-system/brackets"
	"github.com/Dosada05/competition-system/models"
)

// recordPlacement writes the Result rows of a finalized match in its own transaction. The
// winner is already committed, so a failure here is logged and counted but not returned.
func (s *matchService) recordPlacement(ctx context.Context, bracket *models.Bracket, match *models.Match) {
	if bracket.IsTeam() || match.WinnerID == nil || match.FilledSlots() < 2 {
		return
	}

	err := withTx(ctx, s.DB, s.Logger, func(tx *sqlx.Tx) error {
		return s.writeResults(ctx, tx, bracket, match)
	})
	if err != nil {
		s.Metrics.PlacementFailed()
		s.Logger.ErrorContext(ctx, "failed to record placement",
			slog.Int("bracket_id", bracket.ID),
			slog.Int("match_id", match.ID),
			slog.Any("error", err))
	}
}

func (s *matchService) writeResults(ctx context.Context, tx *sqlx.Tx, bracket *models.Bracket, match *models.Match) error {
	winnerID := *match.WinnerID
	loserID, ok := match.Opponent(winnerID)
	if !ok {
		return fmt.Errorf("%w: winner %d is not in match %d", brackets.ErrPlacementUndetermined, winnerID, match.ID)
	}

	winner := &models.Result{MatchID: match.ID, ParticipantID: winnerID}
	winner.Points, winner.OpponentPoints = match.Score.PointsFor(match, winnerID)
	loser := &models.Result{MatchID: match.ID, ParticipantID: loserID}
	loser.Points, loser.OpponentPoints = match.Score.PointsFor(match, loserID)

	if bracket.Type != models.BracketRoundRobin {
		matches, err := s.Matches.ListByBracket(ctx, tx, bracket.ID)
		if err != nil {
			return err
		}
		p, err := brackets.CalculatePlacement(matches, match, winnerID)
		if err != nil {
			return err
		}
		winner.Placement = p.WinnerPlacement
		loser.Placement = &p.LoserPlacement
	}

	for _, r := range []*models.Result{winner, loser} {
		if err := s.Results.Upsert(ctx, tx, r); err != nil {
			return err
		}
	}
	s.Logger.DebugContext(ctx, "results recorded",
		slog.Int("match_id", match.ID),
		slog.Int("winner_id", winnerID),
		slog.Any("loser_placement", loser.Placement))
	return nil
}
