package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/competition-system/models"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchPositionConflict = errors.New("match already exists at this round and position")
	ErrMatchWinnerInvalid    = errors.New("match winner is not one of its participants")
	ErrMatchBracketInvalid   = errors.New("match bracket conflict or invalid")
	ErrInvalidSlot           = errors.New("slot must be 1 or 2")
	ErrMatchEmptyOpening     = errors.New("round 1 match must have at least one participant")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetByPosition(ctx context.Context, exec SQLExecutor, bracketID, round, position int) (*models.Match, error)
	ListByBracket(ctx context.Context, exec SQLExecutor, bracketID int) ([]models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	FillSlot(ctx context.Context, exec SQLExecutor, matchID, slot, participantID int) (bool, error)
}

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, bracket_id, round, position, participant1_id, participant2_id, winner_id,
	status, scheduled_at, score, metadata, created_at, updated_at`

func (r *matchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if match.Round == 1 && match.FilledSlots() == 0 {
		return ErrMatchEmptyOpening
	}
	executor := r.getExecutor(exec)
	if match.Status == "" {
		match.Status = models.MatchStatusScheduled
	}
	now := time.Now().UTC()
	query := executor.Rebind(`
		INSERT INTO matches
			(bracket_id, round, position, participant1_id, participant2_id, winner_id,
			 status, scheduled_at, score, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := executor.QueryRowxContext(ctx, query,
		match.BracketID,
		match.Round,
		match.Position,
		match.Participant1ID,
		match.Participant2ID,
		match.WinnerID,
		match.Status,
		match.ScheduledAt,
		match.Score,
		match.Metadata,
		now,
		now,
	).Scan(&match.ID)
	if err != nil {
		return r.handleMatchError(err)
	}
	match.CreatedAt, match.UpdatedAt = now, now
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT ` + matchColumns + ` FROM matches WHERE id = ?`)

	match := &models.Match{}
	if err := sqlx.GetContext(ctx, executor, match, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return match, nil
}

func (r *matchRepository) GetByPosition(ctx context.Context, exec SQLExecutor, bracketID, round, position int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT ` + matchColumns + `
		FROM matches
		WHERE bracket_id = ? AND round = ? AND position = ?`)

	match := &models.Match{}
	if err := sqlx.GetContext(ctx, executor, match, query, bracketID, round, position); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match at round %d position %d of bracket %d: %w", round, position, bracketID, err)
	}
	return match, nil
}

func (r *matchRepository) ListByBracket(ctx context.Context, exec SQLExecutor, bracketID int) ([]models.Match, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT ` + matchColumns + `
		FROM matches
		WHERE bracket_id = ?
		ORDER BY round ASC, position ASC`)

	matches := make([]models.Match, 0)
	if err := sqlx.SelectContext(ctx, executor, &matches, query, bracketID); err != nil {
		return nil, fmt.Errorf("failed to list matches for bracket %d: %w", bracketID, err)
	}
	return matches, nil
}

// Update writes every mutable column of the match.
func (r *matchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	match.UpdatedAt = time.Now().UTC()
	query := executor.Rebind(`
		UPDATE matches
		SET participant1_id = ?, participant2_id = ?, winner_id = ?, status = ?,
		    scheduled_at = ?, score = ?, metadata = ?, updated_at = ?
		WHERE id = ?`)

	result, err := executor.ExecContext(ctx, query,
		match.Participant1ID,
		match.Participant2ID,
		match.WinnerID,
		match.Status,
		match.ScheduledAt,
		match.Score,
		match.Metadata,
		match.UpdatedAt,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// FillSlot writes participantID into the slot only while it is empty. It reports whether
// the row changed, so repeated calls are no-ops.
func (r *matchRepository) FillSlot(ctx context.Context, exec SQLExecutor, matchID, slot, participantID int) (bool, error) {
	var column string
	switch slot {
	case 1:
		column = "participant1_id"
	case 2:
		column = "participant2_id"
	default:
		return false, fmt.Errorf("%w: got %d", ErrInvalidSlot, slot)
	}

	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE matches SET ` + column + ` = ?, updated_at = ? WHERE id = ? AND ` + column + ` IS NULL`)

	result, err := executor.ExecContext(ctx, query, participantID, time.Now().UTC(), matchID)
	if err != nil {
		return false, fmt.Errorf("failed to fill slot %d of match %d: %w", slot, matchID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *matchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if name, ok := constraintName(err); ok {
		switch {
		case strings.Contains(name, "matches_position_key"), strings.Contains(name, "matches.bracket_id, matches.round"):
			return ErrMatchPositionConflict
		case strings.Contains(name, "matches_winner_check"):
			return ErrMatchWinnerInvalid
		case strings.Contains(name, "matches_bracket_id_fkey"), strings.Contains(name, "FOREIGN KEY"):
			return ErrMatchBracketInvalid
		}
	}
	return err
}
