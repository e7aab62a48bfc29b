package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/data/aggregates"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

// InjectedTxRunner runs aggregate bodies in a real transaction on DB (when
// set) and can force failures at begin or commit to prove rollback paths.
type InjectedTxRunner struct {
	DB *gorm.DB

	FailBegin  error
	FailCommit error

	mu            sync.Mutex
	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.count(&r.BeginCalls)
	if r.FailBegin != nil {
		return r.FailBegin
	}

	var tx *gorm.DB
	if r.DB != nil {
		tx = r.DB.WithContext(ctx).Begin()
		if tx.Error != nil {
			return tx.Error
		}
	}
	rollback := func(err error) error {
		if tx != nil {
			_ = tx.Rollback().Error
		}
		r.count(&r.RollbackCalls)
		return err
	}

	if fn != nil {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return rollback(err)
		}
	}
	if r.FailCommit != nil {
		return rollback(r.FailCommit)
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			return rollback(err)
		}
	}
	r.count(&r.CommitCalls)
	return nil
}

func (r *InjectedTxRunner) count(field *int) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}
