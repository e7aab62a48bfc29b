package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
)

// coded is a storage-side failure that already knows its classification but
// not yet the operation it belongs to. MapError attaches the op.
type coded struct {
	code domainagg.ErrorCode
	msg  string
}

func (e *coded) Error() string { return e.msg }

// ValidationError rejects caller input before anything is written.
func ValidationError(msg string) error {
	return &coded{code: domainagg.CodeValidation, msg: strings.TrimSpace(msg)}
}

// ConflictError reports a lost race or a stale precondition.
func ConflictError(msg string) error {
	return &coded{code: domainagg.CodeConflict, msg: strings.TrimSpace(msg)}
}

// Postgres SQLSTATE classes the aggregates care about.
var pgCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// sqlite reports constraint and locking failures only as text.
var messageCodes = []struct {
	needle string
	code   domainagg.ErrorCode
}{
	{"unique constraint failed", domainagg.CodeConflict},
	{"duplicate key", domainagg.CodeConflict},
	{"database is locked", domainagg.CodeRetryable},
	{"deadlock", domainagg.CodeRetryable},
	{"timeout", domainagg.CodeRetryable},
}

// MapError classifies err for op. Errors that already carry a domain code
// pass through untouched; anything unrecognised becomes internal.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	return domainagg.Wrap(codeFor(err), op, err)
}

func codeFor(err error) domainagg.ErrorCode {
	var c *coded
	if errors.As(err, &c) {
		return c.code
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainagg.CodeNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domainagg.CodeRetryable
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[pgErr.Code]; ok {
			return code
		}
	}
	msg := strings.ToLower(err.Error())
	for _, m := range messageCodes {
		if strings.Contains(msg, m.needle) {
			return m.code
		}
	}
	return domainagg.CodeInternal
}
