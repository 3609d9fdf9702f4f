package db

import (
	"database/sql"
	"testing"
)

func TestTxOptions(t *testing.T) {
	cases := map[string]sql.IsolationLevel{
		"read_committed":  sql.LevelReadCommitted,
		"repeatable_read": sql.LevelRepeatableRead,
		"serializable":    sql.LevelSerializable,
	}
	for name, want := range cases {
		opts := TxOptions(name)
		if opts == nil || opts.Isolation != want {
			t.Fatalf("%s: got %+v", name, opts)
		}
	}
	if TxOptions("") != nil {
		t.Fatalf("empty isolation must fall back to driver default")
	}
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) < 3 {
		t.Fatalf("expected at least 3 migrations, got %d", len(entries))
	}
}
