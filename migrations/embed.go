// Package migrations embeds the SQL schema so the server and integration tests apply
// the same migrations without depending on a path at runtime.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
