package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"charterbooks/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func setupGoose() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	return goose.SetDialect("postgres")
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, pool *Pool) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("setup migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool.Pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationStatus prints the state of every migration through the logger.
func MigrationStatus(ctx context.Context, pool *Pool) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("setup migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool.Pool)
	defer db.Close()

	return goose.StatusContext(ctx, db, migrationsDir)
}

// gooseLogger routes goose output to the application logger.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...any) {
	logger.Default().Fatalf(format, v...)
}

func (gooseLogger) Printf(format string, v ...any) {
	logger.Default().Infof(format, v...)
}
