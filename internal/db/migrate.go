package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// SchemaVersion is the goose version of the newest embedded migration.
const SchemaVersion int64 = 1

var gooseOnce sync.Once

// Migrator applies the embedded migrations through database/sql, which goose requires.
type Migrator struct {
	dsn string
}

func NewMigrator(dsn string) *Migrator {
	return &Migrator{dsn: dsn}
}

func (m *Migrator) Up(ctx context.Context) error {
	return m.withDB(ctx, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Down rolls back to version, or one step when version is zero.
func (m *Migrator) Down(ctx context.Context, version int64) error {
	return m.withDB(ctx, func(db *sql.DB) error {
		if version > 0 {
			if err := goose.DownToContext(ctx, db, migrationsDir, version); err != nil {
				return fmt.Errorf("rollback to version %d: %w", version, err)
			}
			return nil
		}
		if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
		return nil
	})
}

func (m *Migrator) Status(ctx context.Context) error {
	return m.withDB(ctx, func(db *sql.DB) error {
		if err := goose.Status(db, migrationsDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

func (m *Migrator) withDB(ctx context.Context, fn func(*sql.DB) error) error {
	var setupErr error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationsFS)
		setupErr = goose.SetDialect("postgres")
	})
	if setupErr != nil {
		return fmt.Errorf("configure goose: %w", setupErr)
	}

	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer db.Close()

	if err = db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}

	return fn(db)
}
