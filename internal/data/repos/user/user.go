package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/scd-backend/internal/domain/user"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type UserRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	// EnsureByEmail returns the user for email, creating it when absent.
	EnsureByEmail(dbc dbctx.Context, email, displayName string) (*types.User, error)
	// SetDisabled backs `scd user disable/enable`.
	SetDisabled(dbc dbctx.Context, id uuid.UUID, disabled bool) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

// GetByID returns (nil, nil) when the user does not exist.
func (ur *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var rows []*types.User
	if err := dbc.DB(ur.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var rows []*types.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := dbc.DB(ur.db).Where("email = ?", email).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (ur *userRepo) EnsureByEmail(dbc dbctx.Context, email, displayName string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email required")
	}
	existing, err := ur.GetByEmail(dbc, email)
	if err != nil || existing != nil {
		return existing, err
	}
	u := &types.User{ID: uuid.New(), Email: email, DisplayName: strings.TrimSpace(displayName)}
	if err := dbc.DB(ur.db).Create(u).Error; err != nil {
		return nil, err
	}
	ur.log.Info("user created", "user_id", u.ID)
	return u, nil
}

func (ur *userRepo) SetDisabled(dbc dbctx.Context, id uuid.UUID, disabled bool) error {
	return dbc.DB(ur.db).Model(&types.User{}).Where("id = ?", id).Update("disabled", disabled).Error
}
