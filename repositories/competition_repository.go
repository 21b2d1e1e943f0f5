package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/competition-system/models"
)

var (
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrCategoryNotFound    = errors.New("category not found")
)

// CompetitionRepository is the read side of competitions and their weight categories.
type CompetitionRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error)
	GetCategory(ctx context.Context, exec SQLExecutor, id int) (*models.Category, error)
	ListCategories(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.Category, error)
}

type competitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) CompetitionRepository {
	return &competitionRepository{db: db}
}

func (r *competitionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *competitionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT id, name, is_team, created_at FROM competitions WHERE id = ?`)

	c := &models.Competition{}
	if err := sqlx.GetContext(ctx, executor, c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", id, err)
	}
	return c, nil
}

func (r *competitionRepository) GetCategory(ctx context.Context, exec SQLExecutor, id int) (*models.Category, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT id, competition_id, name FROM categories WHERE id = ?`)

	c := &models.Category{}
	if err := sqlx.GetContext(ctx, executor, c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return c, nil
}

func (r *competitionRepository) ListCategories(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.Category, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT id, competition_id, name FROM categories WHERE competition_id = ? ORDER BY id`)

	categories := make([]models.Category, 0)
	if err := sqlx.SelectContext(ctx, executor, &categories, query, competitionID); err != nil {
		return nil, fmt.Errorf("failed to list categories of competition %d: %w", competitionID, err)
	}
	return categories, nil
}
