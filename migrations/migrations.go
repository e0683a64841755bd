// Package migrations embeds the relational schema DDL applied by the migrate
// command.
package migrations

import "embed"

// FS holds the numbered .sql files; apply them in lexical order.
//
//go:embed *.sql
var FS embed.FS
