// Package db holds the schema migrations applied by cmd/migrate.
package db

import "embed"

// Migrations contains the goose SQL migrations
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations
const MigrationsDir = "migrations"
