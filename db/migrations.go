// Package db ships the SQL migrations applied by cmd/migrate and the store tests.
package db

import "embed"

// Migrations holds the versioned schema migrations
//
//go:embed migrations/*.sql
var Migrations embed.FS
