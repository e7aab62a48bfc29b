package aggregates

import (
	"context"
	"errors"
	"testing"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

var passthroughRunner = TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
})

func runWrite(t *testing.T, op string, body error) (error, []WriteEvent) {
	t.Helper()
	var events []WriteEvent
	err := executeWrite(context.Background(), BaseDeps{
		Runner: passthroughRunner,
		Hooks:  HooksFunc(func(ev WriteEvent) { events = append(events, ev) }),
	}, op, func(dbctx.Context) error { return body })
	return err, events
}

func TestExecuteWrite_ReportsOneEventPerCall(t *testing.T) {
	cases := []struct {
		name    string
		body    error
		outcome Outcome
		code    domainagg.ErrorCode
	}{
		{"commit", nil, OutcomeCommitted, ""},
		{"stale version", ConflictError("version mismatch"), OutcomeConflict, domainagg.CodeConflict},
		{"sparse order", ValidationError("order must be dense"), OutcomeRejected, domainagg.CodeValidation},
		{"missing document", domainagg.NewError(domainagg.CodeNotFound, "scd", "gone", nil), OutcomeRejected, domainagg.CodeNotFound},
		{"lock timeout", context.DeadlineExceeded, OutcomeTransient, domainagg.CodeRetryable},
		{"driver failure", errors.New("connection reset by peer"), OutcomeFailed, domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err, events := runWrite(t, "SCD.Document.ReplaceItems", tc.body)
			if (err == nil) != (tc.body == nil) {
				t.Fatalf("err: want nil=%v got=%v", tc.body == nil, err)
			}
			if len(events) != 1 {
				t.Fatalf("events: want=1 got=%d", len(events))
			}
			ev := events[0]
			if ev.Op != "SCD.Document.ReplaceItems" || ev.Outcome != tc.outcome {
				t.Fatalf("event: want=%s got=%+v", tc.outcome, ev)
			}
			if tc.code != "" && ev.Code != tc.code {
				t.Fatalf("code: want=%s got=%s", tc.code, ev.Code)
			}
		})
	}
}

func TestExecuteWrite_DefaultsBlankOp(t *testing.T) {
	_, events := runWrite(t, "  ", nil)
	if len(events) != 1 || events[0].Op != "aggregate.write" {
		t.Fatalf("events: %+v", events)
	}
}

func TestNewObservabilityHooks_NilMetricsIsNoop(t *testing.T) {
	h := NewObservabilityHooks(nil)
	h.AfterWrite(WriteEvent{Op: "x", Outcome: OutcomeConflict})
}
