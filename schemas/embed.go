// Package schemas provides embedded SQL migration files.
package schemas

import "embed"

// Migrations contains the SQL migration files, one per dialect, named
// <version>_<name>.<dialect>.sql.
//
//go:embed migrations/*.sql
var Migrations embed.FS
