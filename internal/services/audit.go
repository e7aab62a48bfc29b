package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	dataagg "github.com/yungbote/scd-backend/internal/data/aggregates"
	"github.com/yungbote/scd-backend/internal/data/repos"
	"github.com/yungbote/scd-backend/internal/domain/audit"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/observability"
	"github.com/yungbote/scd-backend/internal/platform/ctxutil"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

// AuditSink records mutations after they commit. Failures are logged by
// the sink and never fail the mutation.
type AuditSink interface {
	Record(ctx context.Context, actor scdcore.Actor, action, target string, details map[string]any)
	// Recent returns the newest events recorded against target. A sink
	// without storage has nothing to return.
	Recent(ctx context.Context, target string, limit int) ([]*audit.Event, error)
}

type auditSink struct {
	log     *logger.Logger
	events  repos.AuditEventRepo
	metrics *observability.Metrics
}

// NewAuditSink writes events to the audit_events table when events is set
// and always logs them.
func NewAuditSink(log *logger.Logger, events repos.AuditEventRepo, metrics *observability.Metrics) AuditSink {
	return &auditSink{
		log:     log.With("service", "AuditSink"),
		events:  events,
		metrics: metrics,
	}
}

func (s *auditSink) Record(ctx context.Context, actor scdcore.Actor, action, target string, details map[string]any) {
	requestID := ctxutil.RequestID(ctx)
	s.log.Info("audit",
		"action", action,
		"target", target,
		"actor", actor.Email,
		"user_id", actor.ID.String(),
		"request_id", requestID,
	)
	s.metrics.IncAuditEvent(action, "log")
	if s.events == nil {
		return
	}

	var raw datatypes.JSON
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			s.log.Warn("audit details not serializable", "action", action, "error", err)
		} else {
			raw = datatypes.JSON(b)
		}
	}
	ev := &audit.Event{
		ID:        uuid.New(),
		Action:    action,
		ActorID:   actor.ID,
		Actor:     actor.Email,
		Target:    target,
		Details:   raw,
		RequestID: requestID,
	}
	// Detached so a cancelled request still leaves its trail.
	if err := s.events.Create(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, []*audit.Event{ev}); err != nil {
		s.log.Warn("audit event not stored", "action", action, "target", target, "error", err)
		return
	}
	s.metrics.IncAuditEvent(action, "db")
}

func (s *auditSink) Recent(ctx context.Context, target string, limit int) ([]*audit.Event, error) {
	if s.events == nil {
		return []*audit.Event{}, nil
	}
	out, err := s.events.ListRecent(dbctx.Context{Ctx: ctx}, target, limit)
	if err != nil {
		return nil, dataagg.MapError("audit.recent", err)
	}
	return out, nil
}
