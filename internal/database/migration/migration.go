package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// gooseLogger routes goose's progress lines into the structured log.
type gooseLogger struct {
	l *zap.SugaredLogger
}

func (g gooseLogger) Printf(format string, v ...any) { g.l.Infof(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...any) { g.l.Fatalf(format, v...) }

// Up applies every pending embedded migration.
func Up(ctx context.Context, db *sql.DB, logger *zap.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{l: log.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	log.Info("db_migration_start", zap.String("event", "db_migration_start"), zap.String("status", "in_progress"))

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		log.Error("db_migration_failed",
			zap.String("event", "db_migration_failed"),
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	log.Info("db_migration_success",
		zap.String("event", "db_migration_success"),
		zap.String("status", "success"),
		zap.Int64("schema_version", version),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
