// Package migrations embeds the versioned schema for each supported database.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql
var sqliteMigrations embed.FS

//go:embed postgres/*.sql
var postgresMigrations embed.FS

// ForDriver returns the migration files for a database/sql driver name,
// rooted so that file names are migration ids (001_initial_schema.sql).
func ForDriver(driver string) (fs.FS, error) {
	switch driver {
	case "sqlite3":
		return fs.Sub(sqliteMigrations, "sqlite")
	case "postgres":
		return fs.Sub(postgresMigrations, "postgres")
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
