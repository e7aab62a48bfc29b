package testutil

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/data/db"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB returns a migrated database. With TEST_POSTGRES_DSN set it is a shared
// postgres handle; otherwise every call gets its own in-memory sqlite.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		pgOnce.Do(func() {
			svc, err := db.Open(db.Config{Driver: db.DriverPostgres, DSN: dsn}, logger.Nop())
			if err != nil {
				pgErr = err
				return
			}
			pgDB = svc.DB()
			pgErr = db.AutoMigrateAll(pgDB)
		})
		if pgErr != nil {
			tb.Fatalf("failed to init test db: %v", pgErr)
		}
		return pgDB
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	svc, err := db.Open(db.Config{Driver: db.DriverSQLite, DSN: dsn}, logger.Nop())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })
	if err := db.AutoMigrateAll(svc.DB()); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return svc.DB()
}

// Tx opens a transaction that is rolled back when the test ends.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
