package store

import "embed"

// migrationsFS contains all SQL migration files embedded at compile time.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS
