package migrations

import "embed"

// FS holds the goose-annotated SQL migrations for the Postgres backend.
//
//go:embed *.sql
var FS embed.FS
