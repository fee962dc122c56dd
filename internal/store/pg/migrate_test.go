package pg

import (
	"strings"
	"testing"
	"testing/fstest"

	pgmigrations "github.com/dropDatabas3/idlink/migrations/postgres"
)

func TestParseMigrations_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_meta.sql":     {Data: []byte("CREATE TABLE b ();")},
		"0001_init.sql":     {Data: []byte("CREATE TABLE a ();")},
		"README.md":         {Data: []byte("docs")},
		"nested/0003_x.sql": {Data: []byte("CREATE TABLE c ();")},
	}
	migs, err := NewMigrator(fsys, ".").ParseMigrations()
	if err != nil {
		t.Fatalf("ParseMigrations err: %v", err)
	}
	if len(migs) != 2 {
		t.Fatalf("len = %d; want 2", len(migs))
	}
	if migs[0].Version != 1 || migs[0].Name != "init" || migs[1].Version != 2 {
		t.Fatalf("unexpected order: %+v", migs)
	}
}

func TestParseMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql":  {Data: []byte("SELECT 1;")},
	}
	if _, err := NewMigrator(fsys, ".").ParseMigrations(); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := NewMigrator(pgmigrations.FS, pgmigrations.Dir).ParseMigrations()
	if err != nil {
		t.Fatalf("ParseMigrations err: %v", err)
	}
	if len(migs) == 0 || migs[0].Version != 1 {
		t.Fatalf("embedded migrations = %+v", migs)
	}
	for _, table := range []string{"app_user", "user_meta", "audit_log"} {
		if !strings.Contains(migs[0].SQL, table) {
			t.Errorf("0001 does not create %s", table)
		}
	}
}
