package database

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/trezcool/goose"
)

// Migrate applies all pending migrations.
func Migrate(db *sql.DB) error {
	if err := goose.Up(db, MigrationsFS, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
