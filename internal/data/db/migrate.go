package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/domain/audit"
	"github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/domain/scd"
	"github.com/yungbote/scd-backend/internal/domain/user"
)

// Models lists every table owned by the service, parents first.
func Models() []any {
	return []any{
		&user.User{},
		&catalog.Requirement{},
		&scd.Document{},
		&scd.LineItem{},
		&audit.Event{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := EnsureSCDIndexes(db); err != nil {
		return err
	}
	return EnsureCatalogIndexes(db)
}

// EnsureSCDIndexes backs the ordering and dedup rules of line items.
// Partial indexes work on both postgres and sqlite.
func EnsureSCDIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_scd_line_items_doc_order
			ON scd_line_items (document_id, item_order);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_scd_line_items_doc_requirement
			ON scd_line_items (document_id, original_requirement_id)
			WHERE original_requirement_id IS NOT NULL;`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("scd indexes: %w", err)
		}
	}
	return nil
}

func EnsureCatalogIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_requirements_category_requirement
		ON requirements (category, requirement);`).Error; err != nil {
		return fmt.Errorf("catalog indexes: %w", err)
	}
	return nil
}
