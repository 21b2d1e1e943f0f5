// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/db"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/utils"
)

func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Connect("sqlite://file::memory:", 5*time.Second)
	require.NoError(t, err, "failed to open in-memory database")

	require.NoError(t, db.Migrate(database), "failed to apply migrations")

	t.Cleanup(func() { _ = database.Close() })
	return database
}

// SeedCompetition inserts a competition and returns its ID.
func SeedCompetition(t *testing.T, database *sqlx.DB, name string, isTeam bool) int {
	t.Helper()
	var id int
	err := database.QueryRowx(database.Rebind(`INSERT INTO competitions (name, is_team) VALUES (?, ?) RETURNING id`), name, isTeam).Scan(&id)
	require.NoError(t, err)
	return id
}

func SeedCategory(t *testing.T, database *sqlx.DB, competitionID int, name string) int {
	t.Helper()
	var id int
	err := database.QueryRowx(database.Rebind(`INSERT INTO categories (competition_id, name) VALUES (?, ?) RETURNING id`), competitionID, name).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedAthletes registers confirmed athletes in a category.
func SeedAthletes(t *testing.T, database *sqlx.DB, competitionID, categoryID int, athleteIDs ...int) {
	t.Helper()
	for _, a := range athleteIDs {
		seedRegistration(t, database, models.Registration{
			CompetitionID: competitionID,
			CategoryID:    utils.Ptr(categoryID),
			AthleteID:     utils.Ptr(a),
			Status:        models.RegistrationConfirmed,
		})
	}
}

func SeedTeams(t *testing.T, database *sqlx.DB, competitionID int, teamIDs ...int) {
	t.Helper()
	for _, team := range teamIDs {
		seedRegistration(t, database, models.Registration{
			CompetitionID: competitionID,
			TeamID:        utils.Ptr(team),
			Status:        models.RegistrationConfirmed,
		})
	}
}

func seedRegistration(t *testing.T, database *sqlx.DB, reg models.Registration) {
	t.Helper()
	_, err := database.NamedExec(`
		INSERT INTO registrations (competition_id, category_id, athlete_id, team_id, status)
		VALUES (:competition_id, :category_id, :athlete_id, :team_id, :status)`, reg)
	require.NoError(t, err)
}
