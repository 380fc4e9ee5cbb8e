// Package migrations embeds the database schema and applies it with
// golang-migrate. The up script doubles as the container init script in
// integration tests.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var Files embed.FS

// Up applies all pending migrations against the given database URL.
// Applying an already-migrated database is a no-op.
func Up(databaseURL string) error {
	// The pgx/v5 migrate driver registers the pgx5 URL scheme.
	databaseURL = strings.Replace(databaseURL, "postgres://", "pgx5://", 1)

	source, err := iofs.New(Files, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	instance, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer instance.Close()

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
