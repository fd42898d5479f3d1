// Package migrations embeds the SQL migrations so the binary can apply them
// without a migrations directory next to it.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
