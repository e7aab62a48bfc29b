package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/data/repos/audit"
	"github.com/yungbote/scd-backend/internal/data/repos/catalog"
	"github.com/yungbote/scd-backend/internal/data/repos/scd"
	"github.com/yungbote/scd-backend/internal/data/repos/user"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type RequirementRepo = catalog.RequirementRepo
type DocumentRepo = scd.DocumentRepo
type AuditEventRepo = audit.EventRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewRequirementRepo(db *gorm.DB, log *logger.Logger) RequirementRepo {
	return catalog.NewRequirementRepo(db, log)
}

func NewDocumentRepo(db *gorm.DB, log *logger.Logger) DocumentRepo {
	return scd.NewDocumentRepo(db, log)
}

func NewAuditEventRepo(db *gorm.DB, log *logger.Logger) AuditEventRepo {
	return audit.NewEventRepo(db, log)
}
