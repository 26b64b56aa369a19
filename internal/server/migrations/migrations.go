// Package migrations embeds the goose SQL migrations for the users schema.
// The DDL is written to run on both SQLite and PostgreSQL, and initialization
// is idempotent: goose version tracking plus IF NOT EXISTS guards make
// repeated startup against an existing store safe.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
