package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

// BaseDeps is shared by every aggregate implementation.
type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Now    func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// executeWrite runs fn in one transaction, maps the failure onto an
// aggregate code and reports the outcome to the hooks.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}

	mapped := MapError(op, deps.Runner.InTx(ctx, fn))
	outcome, code := classify(mapped)
	if outcome == OutcomeFailed && deps.Log != nil {
		deps.Log.Error("aggregate write failed", "op", op, "error", mapped)
	}
	deps.Hooks.AfterWrite(WriteEvent{Op: op, Outcome: outcome, Code: code, Duration: time.Since(start)})
	return mapped
}
