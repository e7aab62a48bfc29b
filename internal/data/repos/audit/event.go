package audit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/scd-backend/internal/domain/audit"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type EventRepo interface {
	Create(dbc dbctx.Context, events []*types.Event) error
	// ListRecent returns the newest events first. An empty target lists all.
	ListRecent(dbc dbctx.Context, target string, limit int) ([]*types.Event, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "AuditEventRepo")}
}

func (r *eventRepo) Create(dbc dbctx.Context, events []*types.Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
	}
	return dbc.DB(r.db).Create(&events).Error
}

func (r *eventRepo) ListRecent(dbc dbctx.Context, target string, limit int) ([]*types.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := dbc.DB(r.db).Order("created_at DESC, id ASC").Limit(limit)
	if target != "" {
		q = q.Where("target = ?", target)
	}
	var out []*types.Event
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
