package typedb

import _ "embed"

//go:generate go run ../../cmd/schemagen -in schema/schema.yaml -out schema/schema.tql

// The schema and seed ship inside the binary so a fresh server can be
// provisioned by EnsureDatabase without any deploy-time file layout.

//go:embed schema/schema.tql
var schemaTQL string

//go:embed schema/seed.tql
var seedTQL string
