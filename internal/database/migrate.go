package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinic_backend/migrations"
	"clinic_backend/pkg/utils"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration db driver: %w", err)
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// versioner is the part of *migrate.Migrate that reports the schema state.
type versioner interface {
	Version() (uint, bool, error)
}

// schemaState treats a database with no applied migration as version 0.
func schemaState(m versioner) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func migrateUp(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, err := schemaState(m)
	if err != nil {
		utils.LogWarn(err, "Migrations applied but the schema version could not be read")
		return nil
	}
	utils.LogInfo("Database schema is up to date", map[string]interface{}{"version": version, "dirty": dirty})
	return nil
}

// MigrateUp applies every pending embedded migration.
// The migrator is not closed because that would close db as well; the
// postgres driver keeps one connection of db checked out until then.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	return migrateUp(m)
}

// ApplyMigrations runs the pending migrations over a dedicated single-connection
// pool and closes it afterwards, so the serving pool keeps all its connections.
func ApplyMigrations(ctx context.Context, cfg Config) error {
	cfg.MaxOpenConns, cfg.MaxIdleConns = 1, 1
	db, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	m, err := newMigrator(db)
	if err != nil {
		Close(db)
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			utils.LogWarn(errors.Join(srcErr, dbErr), "Error closing migration connection")
		}
	}()
	return migrateUp(m)
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(db *sql.DB, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version.
func SchemaVersion(db *sql.DB) (uint, bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	return schemaState(m)
}
