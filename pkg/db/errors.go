package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. When constraintName is provided the violation must reference it;
// sqlite reports column lists instead of constraint names, so callers pass the
// table-qualified columns as fallbacks.
func IsUniqueViolation(err error, constraintName string, sqliteColumns ...string) bool {
	if err == nil {
		return false
	}
	if code, constraint, ok := pgFields(err); ok {
		return code == pgUniqueViolation && (constraintName == "" || constraint == constraintName)
	}
	msg := err.Error()
	var liteErr sqlite3.Error
	isLiteUnique := errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	if isLiteUnique || strings.Contains(msg, "UNIQUE constraint failed") {
		if len(sqliteColumns) == 0 {
			return true
		}
		for _, column := range sqliteColumns {
			if !strings.Contains(msg, column) {
				return false
			}
		}
		return true
	}
	if !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}

// IsCheckViolation reports whether the error is a CHECK constraint failure.
func IsCheckViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if code, constraint, ok := pgFields(err); ok {
		return code == pgCheckViolation && (constraintName == "" || constraint == constraintName)
	}
	msg := err.Error()
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintCheck {
		return constraintName == "" || strings.Contains(msg, constraintName)
	}
	if !strings.Contains(msg, "CHECK constraint failed") && !strings.Contains(msg, "violates check constraint") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}

func pgFields(err error) (code, constraint string, ok bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}
