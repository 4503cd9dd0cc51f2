// Package migrations embeds the goose migrations of the sql store, one
// directory per database dialect.
package migrations

import (
	"embed"
	"fmt"
	"path"
)

// FS holds the migration files.
//
//go:embed sql
var FS embed.FS

// DirFor returns the directory inside FS holding the migrations for driver.
func DirFor(driver string) (string, error) {
	switch driver {
	case "postgres", "mysql", "sqlite":
		return path.Join("sql", driver), nil
	default:
		return "", fmt.Errorf("no migrations for database driver %q", driver)
	}
}
