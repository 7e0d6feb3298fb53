// Package migrations holds the goose SQL migrations for every supported
// dialect, one directory per dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
