package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/competition-system/db"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/utils"
)

var (
	ErrBracketNotFound      = errors.New("bracket not found")
	ErrBracketScopeConflict = errors.New("bracket already exists for this competition and category")
)

type BracketRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Bracket, error)
	GetByScope(ctx context.Context, exec SQLExecutor, competitionID int, categoryID *int) (*models.Bracket, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]*models.Bracket, error)
	DeleteByScope(ctx context.Context, exec SQLExecutor, competitionID int, categoryID *int) (int64, error)
	LockForUpdate(ctx context.Context, exec SQLExecutor, id int) error
}

type bracketRepository struct {
	db *sqlx.DB
}

func NewBracketRepository(db *sqlx.DB) BracketRepository {
	return &bracketRepository{db: db}
}

func (r *bracketRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const bracketColumns = `id, competition_id, category_id, bracket_type, participant_kind, created_at`

func (r *bracketRepository) Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		INSERT INTO brackets (competition_id, category_id, bracket_type, participant_kind)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at`)

	err := executor.QueryRowxContext(ctx, query,
		bracket.CompetitionID,
		bracket.CategoryID,
		bracket.Type,
		bracket.ParticipantKind,
	).Scan(&bracket.ID, &bracket.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBracketScopeConflict
		}
		return fmt.Errorf("failed to create bracket for competition %d: %w", bracket.CompetitionID, err)
	}
	return nil
}

func (r *bracketRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Bracket, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT ` + bracketColumns + ` FROM brackets WHERE id = ?`)

	bracket := &models.Bracket{}
	if err := sqlx.GetContext(ctx, executor, bracket, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to get bracket %d: %w", id, err)
	}
	return bracket, nil
}

// GetByScope finds the live bracket of a category, or of a team competition when categoryID is nil.
func (r *bracketRepository) GetByScope(ctx context.Context, exec SQLExecutor, competitionID int, categoryID *int) (*models.Bracket, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT ` + bracketColumns + `
		FROM brackets
		WHERE competition_id = ? AND COALESCE(category_id, 0) = ?`)

	bracket := &models.Bracket{}
	if err := sqlx.GetContext(ctx, executor, bracket, query, competitionID, utils.OrZero(categoryID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to get bracket for competition %d: %w", competitionID, err)
	}
	return bracket, nil
}

func (r *bracketRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]*models.Bracket, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT ` + bracketColumns + ` FROM brackets WHERE competition_id = ? ORDER BY id`)

	brackets := make([]*models.Bracket, 0)
	if err := sqlx.SelectContext(ctx, executor, &brackets, query, competitionID); err != nil {
		return nil, fmt.Errorf("failed to list brackets for competition %d: %w", competitionID, err)
	}
	return brackets, nil
}

// DeleteByScope removes the bracket of the scope. Matches and results go with it by cascade.
func (r *bracketRepository) DeleteByScope(ctx context.Context, exec SQLExecutor, competitionID int, categoryID *int) (int64, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`DELETE FROM brackets WHERE competition_id = ? AND COALESCE(category_id, 0) = ?`)

	result, err := executor.ExecContext(ctx, query, competitionID, utils.OrZero(categoryID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete bracket for competition %d: %w", competitionID, err)
	}
	return result.RowsAffected()
}

// LockForUpdate takes a row lock on PostgreSQL. Other drivers only check that the bracket exists.
func (r *bracketRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `SELECT id FROM brackets WHERE id = ?`
	if db.IsPostgres(executor.DriverName()) {
		query += ` FOR UPDATE`
	}

	var lockedID int
	if err := executor.QueryRowxContext(ctx, executor.Rebind(query), id).Scan(&lockedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBracketNotFound
		}
		return fmt.Errorf("failed to lock bracket %d: %w", id, err)
	}
	return nil
}
