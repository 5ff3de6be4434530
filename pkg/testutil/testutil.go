package testutil

import (
	"database/sql"
	"strings"
	"testing"

	configlibsql "pandassist/pkg/configutil/libsql"
)

type DBParams struct {
	// if unspecified, the db is left empty
	Schema string
	// if unspecified, it will use `:memory:`, `<dev_state>` paths are resolved
	Path string
}

// OpenDB opens a sqlite database for a single test and closes it when the test ends.
func OpenDB(t testing.TB, params DBParams) *sql.DB {
	path := params.Path
	if path == "" {
		path = ":memory:"
	}
	database, err := configlibsql.Struct{File: path}.OpenDB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	if params.Schema != "" {
		_, err = database.Exec(params.Schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			t.Fatal(err)
		}
	}
	return database
}
