package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/competition-system/models"
)

// RegistrationRepository reads the confirmed entries the bracket engine seeds from.
type RegistrationRepository interface {
	ListConfirmedAthletes(ctx context.Context, exec SQLExecutor, competitionID, categoryID int) ([]int, error)
	ListConfirmedTeams(ctx context.Context, exec SQLExecutor, competitionID int) ([]int, error)
}

type registrationRepository struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *registrationRepository) ListConfirmedAthletes(ctx context.Context, exec SQLExecutor, competitionID, categoryID int) ([]int, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT athlete_id
		FROM registrations
		WHERE competition_id = ? AND category_id = ? AND status = ? AND athlete_id IS NOT NULL
		ORDER BY id`)

	ids := make([]int, 0)
	if err := sqlx.SelectContext(ctx, executor, &ids, query, competitionID, categoryID, models.RegistrationConfirmed); err != nil {
		return nil, fmt.Errorf("failed to list athletes of category %d: %w", categoryID, err)
	}
	return ids, nil
}

func (r *registrationRepository) ListConfirmedTeams(ctx context.Context, exec SQLExecutor, competitionID int) ([]int, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT team_id
		FROM registrations
		WHERE competition_id = ? AND status = ? AND team_id IS NOT NULL
		ORDER BY id`)

	ids := make([]int, 0)
	if err := sqlx.SelectContext(ctx, executor, &ids, query, competitionID, models.RegistrationConfirmed); err != nil {
		return nil, fmt.Errorf("failed to list teams of competition %d: %w", competitionID, err)
	}
	return ids, nil
}
