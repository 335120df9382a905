package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/ericfisherdev/totpvault/internal/domain/port/driven"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies all pending database migrations embedded in the binary.
// It is safe to call on every startup; already-applied migrations are skipped.
// Each migration runs in its own transaction.
func RunMigrations(db *DB) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return &driven.MigrationError{Step: "source", Err: err}
	}

	dbDriver, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return &driven.MigrationError{Step: "driver", Err: err}
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return &driven.MigrationError{Step: "init", Err: err}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return &driven.MigrationError{Step: "up", Err: err}
	}

	return nil
}

// SchemaVersion reports the applied migration version and whether the last
// migration left the schema dirty. An empty version table reports 0.
func SchemaVersion(ctx context.Context, db *DB) (version uint, dirty bool, err error) {
	err = db.Do(ctx, func(q Querier) error {
		const query = `SELECT version, dirty FROM schema_migrations LIMIT 1`
		scanErr := q.QueryRowContext(ctx, query).Scan(&version, &dirty)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil
		}
		return scanErr
	})
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}
