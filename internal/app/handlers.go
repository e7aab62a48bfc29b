package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/scd-backend/internal/http/handlers"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Me      *httpH.MeHandler
	Catalog *httpH.CatalogHandler
	SCD     *httpH.SCDHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, reposet Repos, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(db),
		Me:      httpH.NewMeHandler(reposet.User),
		Catalog: httpH.NewCatalogHandler(log, serviceset.Catalog),
		SCD:     httpH.NewSCDHandler(log, serviceset.SCD),
	}
}
