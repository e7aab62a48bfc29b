package aggregates

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

// bumpVersion moves a versioned root row from version from to from+1 inside
// the open transaction. When no row matches, a concurrent writer already
// moved it and the write is a conflict.
func bumpVersion(dbc dbctx.Context, table string, id uuid.UUID, from int, at time.Time) error {
	if dbc.Tx == nil {
		return fmt.Errorf("bump %s version: no transaction", table)
	}
	if id == uuid.Nil || from < 0 {
		return ValidationError(fmt.Sprintf("bump %s version: bad row %s@%d", table, id, from))
	}
	res := dbc.DB(nil).Table(table).
		Where("id = ? AND version = ?", id, from).
		Updates(map[string]any{"version": from + 1, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("%s %s changed concurrently", table, id))
	}
	return nil
}

// RequireVersionMatch is the caller-side precondition: the client saw
// expected and the row is at current.
func RequireVersionMatch(current, expected int) error {
	switch {
	case expected < 0:
		return ValidationError("expected version must be >= 0")
	case current != expected:
		return ConflictError(fmt.Sprintf("version mismatch: have %d, caller expected %d", current, expected))
	}
	return nil
}
