package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/data/repos"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	Requirement repos.RequirementRepo
	Document    repos.DocumentRepo
	AuditEvent  repos.AuditEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		Requirement: repos.NewRequirementRepo(db, log),
		Document:    repos.NewDocumentRepo(db, log),
		AuditEvent:  repos.NewAuditEventRepo(db, log),
	}
}
