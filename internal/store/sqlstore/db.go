package sqlstore

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/promptgen-backend/internal/platform/logger"
)

// Open connects to postgres or sqlite and migrates the session table.
func Open(driver, dsn string, baseLog *logger.Logger) (*gorm.DB, error) {
	dbLog := baseLog.With("service", "SQLStoreDB", "driver", driver)

	gormLog := gormLogger.New(
		stdLogger(),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	dbLog.Info("Session database ready")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&sessionRow{})
}

func stdLogger() gormLogger.Writer {
	return log.New(os.Stdout, "\r\n", log.LstdFlags)
}
