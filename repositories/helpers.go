package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// SQLExecutor is satisfied by both *sqlx.DB and *sqlx.Tx. Queries are written with ? and
// rebound for the driver in use.
type SQLExecutor interface {
	sqlx.ExtContext
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// constraintName extracts the violated constraint from a PostgreSQL or SQLite error.
// SQLite does not report names for unique indexes, so the column list is returned instead.
func constraintName(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23503", "23514":
			return pqErr.Constraint, true
		}
		return "", false
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		msg := liteErr.Error()
		if i := strings.Index(msg, "failed: "); i >= 0 {
			return msg[i+len("failed: "):], true
		}
		return msg, true
	}
	return "", false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
