package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Event is one recorded mutation.
type Event struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Action    string         `gorm:"not null;index;column:action" json:"action"`
	ActorID   uuid.UUID      `gorm:"type:uuid;index;column:actor_id" json:"actor_id"`
	Actor     string         `gorm:"column:actor_email" json:"actor_email"`
	Target    string         `gorm:"index;column:target" json:"target"`
	Details   datatypes.JSON `gorm:"column:details" json:"details,omitempty"`
	RequestID string         `gorm:"column:request_id" json:"request_id,omitempty"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Event) TableName() string { return "audit_events" }

const (
	ActionDocumentCreate = "scd.create"
	ActionDocumentItems  = "scd.replace_items"
	ActionDocumentClone  = "scd.clone"
	ActionDocumentDelete = "scd.delete"
	ActionCatalogCreate  = "catalog.create"
	ActionCatalogUpdate  = "catalog.update"
	ActionCatalogDelete  = "catalog.delete"
	ActionCatalogImport  = "catalog.import"
)
