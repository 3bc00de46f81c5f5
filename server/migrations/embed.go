// Package migrations содержит SQL-миграции схемы, встроенные в бинарник.
package migrations

import "embed"

// FS - файловая система с миграциями для goose.
//
//go:embed *.sql
var FS embed.FS
