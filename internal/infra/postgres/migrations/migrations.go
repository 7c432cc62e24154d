package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the schema of the quiz bank and leaderboard tables.
var Migrations = migrate.NewMigrations()
