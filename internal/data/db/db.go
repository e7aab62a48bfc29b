package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/scd-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver        string
	DSN           string
	SlowThreshold time.Duration
	MaxOpenConns  int
}

// Service owns the process-wide *gorm.DB.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func Open(cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService", "driver", cfg.Driver)

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres, "":
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}
	gormLog := gormLogger.New(
		zapWriter{log: serviceLog},
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == DriverSQLite {
		// sqlite serializes writers; one connection avoids "database is locked".
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}

	serviceLog.Info("database connected")
	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type zapWriter struct {
	log *logger.Logger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.SugaredLogger.Warnf(format, args...)
}
