package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a known identity. Identities are issued elsewhere; a row exists so
// tokens can be revoked by deleting or disabling it.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	DisplayName string    `gorm:"column:display_name" json:"display_name"`
	Disabled    bool      `gorm:"not null;default:false;column:disabled" json:"disabled"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

// Active reports whether the identity may still authenticate.
func (u *User) Active() bool {
	return u != nil && !u.Disabled && !u.DeletedAt.Valid
}
