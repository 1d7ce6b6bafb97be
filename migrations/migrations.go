// Package migrations embeds the goose SQL migrations so both binaries can
// apply them at startup without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
