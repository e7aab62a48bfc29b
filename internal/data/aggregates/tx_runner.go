package aggregates

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

// TxRunner is the transaction boundary every aggregate write goes through.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// TxRunnerFunc adapts a plain function to TxRunner.
type TxRunnerFunc func(ctx context.Context, fn func(dbc dbctx.Context) error) error

func (f TxRunnerFunc) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return f(ctx, fn)
}

// NewGormTxRunner commits when fn returns nil and rolls back otherwise.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
		if db == nil {
			return errors.New("aggregate tx: no database")
		}
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	})
}
