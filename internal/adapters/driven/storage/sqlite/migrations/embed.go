// Package migrations holds the numbered schema files for the standing query store.
package migrations

import "embed"

// FS is read by the store on open; only *.up.sql files are applied.
//
//go:embed *.sql
var FS embed.FS
