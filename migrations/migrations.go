// Package migrations embeds the evaluation history schema for each
// supported database driver.
package migrations

import "embed"

// SqliteMigrations holds the schema for sqlite:// history stores.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

// PostgresMigrations holds the schema for postgres:// history stores.
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
