package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/competition-system/models"
)

type ResultRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, result *models.Result) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.Result, error)
	ListByBracket(ctx context.Context, exec SQLExecutor, bracketID int) ([]models.Result, error)
	ListStandings(ctx context.Context, exec SQLExecutor, bracketID int) ([]models.Standing, error)
}

type resultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert writes the participant's record of a match, overwriting any earlier one.
func (r *resultRepository) Upsert(ctx context.Context, exec SQLExecutor, result *models.Result) error {
	executor := r.getExecutor(exec)
	result.UpdatedAt = time.Now().UTC()
	query := executor.Rebind(`
		INSERT INTO results (match_id, participant_id, points, opponent_points, placement, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id, participant_id) DO UPDATE
		SET points = excluded.points,
		    opponent_points = excluded.opponent_points,
		    placement = excluded.placement,
		    updated_at = excluded.updated_at
		RETURNING id`)

	err := executor.QueryRowxContext(ctx, query,
		result.MatchID,
		result.ParticipantID,
		result.Points,
		result.OpponentPoints,
		result.Placement,
		result.UpdatedAt,
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert result of participant %d in match %d: %w", result.ParticipantID, result.MatchID, err)
	}
	return nil
}

func (r *resultRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.Result, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT id, match_id, participant_id, points, opponent_points, placement, updated_at
		FROM results
		WHERE match_id = ?
		ORDER BY participant_id`)

	results := make([]models.Result, 0)
	if err := sqlx.SelectContext(ctx, executor, &results, query, matchID); err != nil {
		return nil, fmt.Errorf("failed to list results for match %d: %w", matchID, err)
	}
	return results, nil
}

func (r *resultRepository) ListByBracket(ctx context.Context, exec SQLExecutor, bracketID int) ([]models.Result, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT r.id, r.match_id, r.participant_id, r.points, r.opponent_points, r.placement, r.updated_at
		FROM results r
		JOIN matches m ON m.id = r.match_id
		WHERE m.bracket_id = ?
		ORDER BY m.round, m.position, r.participant_id`)

	results := make([]models.Result, 0)
	if err := sqlx.SelectContext(ctx, executor, &results, query, bracketID); err != nil {
		return nil, fmt.Errorf("failed to list results for bracket %d: %w", bracketID, err)
	}
	return results, nil
}

// ListStandings returns the placed participants of a bracket, best placement first.
func (r *resultRepository) ListStandings(ctx context.Context, exec SQLExecutor, bracketID int) ([]models.Standing, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT r.participant_id, r.placement, r.match_id, m.round
		FROM results r
		JOIN matches m ON m.id = r.match_id
		WHERE m.bracket_id = ? AND r.placement IS NOT NULL
		ORDER BY r.placement, r.participant_id`)

	standings := make([]models.Standing, 0)
	if err := sqlx.SelectContext(ctx, executor, &standings, query, bracketID); err != nil {
		return nil, fmt.Errorf("failed to list standings for bracket %d: %w", bracketID, err)
	}
	return standings, nil
}
