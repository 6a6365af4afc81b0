package sqlite

import (
	"fmt"
	"strings"

	"github.com/rpggio/batchreport/internal/repository"
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed")
}

func isMissingTable(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "no such table")
}

// isTransient reports lock contention that is worth retrying.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}

// storeError maps a missing table onto repository.ErrStoreAbsent.
func storeError(op, table string, err error) error {
	if isMissingTable(err) {
		return fmt.Errorf("%s %s: %w", op, table, repository.ErrStoreAbsent)
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}
