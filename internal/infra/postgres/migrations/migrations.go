// Package migrations holds the Postgres schema for the quiz bank and game statistics.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
