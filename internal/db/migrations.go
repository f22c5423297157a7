package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	_ "github.com/golang-migrate/migrate/v4/source/file"       //nolint:revive
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate применяет миграции к базе dsn. Если dir пустой, используются миграции, вшитые в бинарник.
func Migrate(dsn, dir string) error {
	m, err := newMigrate(dsn, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	if upErr := m.Up(); upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate schema: %w", upErr)
	}
	return nil
}

func newMigrate(dsn, dir string) (*migrate.Migrate, error) {
	if dir != "" {
		m, err := migrate.New("file://"+dir, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
		return m, nil
	}

	src, srcErr := iofs.New(migrationsFS, "migrations")
	if srcErr != nil {
		return nil, fmt.Errorf("iofs source: %w", srcErr)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
