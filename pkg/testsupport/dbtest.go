// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"database/sql"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteMemoryDB opens a shared-cache in-memory SQLite database. Each
// name is a separate database, so tests pass t.Name() to stay isolated.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	if name == "" {
		name = "wiki"
	}
	return sql.Open("sqlite3", "file:"+url.PathEscape(name)+"?mode=memory&cache=shared")
}
