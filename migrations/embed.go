// Package migrations embeds the SQL schema so the binary can migrate
// without a checkout next to it.
package migrations

import "embed"

// Files holds every *.sql migration in version order by file name
//
//go:embed *.sql
var Files embed.FS
