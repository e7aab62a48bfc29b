package aggregates

import (
	"time"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/observability"
)

// Outcome classifies a finished aggregate write.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	// OutcomeRejected covers caller mistakes: validation, missing rows, permissions.
	OutcomeRejected Outcome = "rejected"
	OutcomeConflict Outcome = "conflict"
	// OutcomeTransient is a timeout or lock failure the caller may retry.
	OutcomeTransient Outcome = "transient"
	OutcomeFailed    Outcome = "failed"
)

// WriteEvent describes one executeWrite call. Code is empty on commit.
type WriteEvent struct {
	Op       string
	Outcome  Outcome
	Code     domainagg.ErrorCode
	Duration time.Duration
}

// Hooks observes aggregate writes after the transaction settles.
type Hooks interface {
	AfterWrite(ev WriteEvent)
}

// HooksFunc adapts a plain function to Hooks.
type HooksFunc func(ev WriteEvent)

func (f HooksFunc) AfterWrite(ev WriteEvent) { f(ev) }

var noopHooks = HooksFunc(func(WriteEvent) {})

// NewObservabilityHooks feeds write events into metrics; nil metrics
// yields a no-op.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks
	}
	return HooksFunc(func(ev WriteEvent) {
		metrics.ObserveAggregateOperation(ev.Op, string(ev.Outcome), ev.Duration)
		switch ev.Outcome {
		case OutcomeConflict:
			metrics.IncAggregateConflict(ev.Op)
		case OutcomeTransient:
			metrics.IncAggregateTransient(ev.Op)
		}
	})
}

func classify(err error) (Outcome, domainagg.ErrorCode) {
	if err == nil {
		return OutcomeCommitted, ""
	}
	code := domainagg.CodeOf(err)
	switch code {
	case domainagg.CodeConflict, domainagg.CodePreconditionFailed:
		return OutcomeConflict, code
	case domainagg.CodeValidation, domainagg.CodeNotFound, domainagg.CodeForbidden,
		domainagg.CodeUnauthorized, domainagg.CodeInvariantViolation:
		return OutcomeRejected, code
	case domainagg.CodeRetryable:
		return OutcomeTransient, code
	case "":
		return OutcomeFailed, domainagg.CodeInternal
	default:
		return OutcomeFailed, code
	}
}
