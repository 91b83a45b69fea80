package storage

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

// Channel names come from an external API and end up in table identifiers,
// so quoting is load-bearing, not cosmetic.
func TestTableIdentifierIsQuoted(t *testing.T) {
	stmt := fmt.Sprintf(createTableSQL, pgx.Identifier{`streamer_evil"; drop table users; --`}.Sanitize())

	if !strings.Contains(stmt, `"streamer_evil""; drop table users; --"`) {
		t.Fatalf("identifier not safely quoted: %s", stmt)
	}
	if strings.Contains(stmt, `evil";`) {
		t.Fatalf("raw quote leaked into statement: %s", stmt)
	}
}

func TestInsertNeverOverwrites(t *testing.T) {
	stmt := fmt.Sprintf(insertRowSQL, pgx.Identifier{"streamer_foo"}.Sanitize())

	if !strings.Contains(stmt, "ON CONFLICT (date) DO NOTHING") {
		t.Fatalf("insert must be conditional on the period key: %s", stmt)
	}
	if strings.Contains(stmt, "DO UPDATE") {
		t.Fatal("existing rows must never be overwritten")
	}
}
