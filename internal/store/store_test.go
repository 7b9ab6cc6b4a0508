package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"products", "attributes", "attribute_values", "variants"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		if err := s.verifyPragma(tt.name, tt.expected); err != nil {
			t.Error(err)
		}
	}
}

// Schema tests

func TestSchema_VariantsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "variants")
	expected := []string{
		"id", "product_id", "position", "options", "tuple_hash", "sku", "sku_key",
		"price", "compare_at_price", "stock", "is_available", "weight",
		"media_id", "low_stock_threshold",
	}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("variants table missing column %q", col)
		}
	}
}

func TestSchema_AttributeTables(t *testing.T) {
	s := createTestStore(t)

	for table, expected := range map[string][]string{
		"attributes":       {"id", "product_id", "position", "name"},
		"attribute_values": {"id", "attribute_id", "position", "value"},
		"products":         {"id", "name", "sku_prefix", "matrix_hash", "created_at", "updated_at"},
	} {
		columns := getTableColumns(t, s.db, table)
		for _, col := range expected {
			if !contains(columns, col) {
				t.Errorf("%s table missing column %q", table, col)
			}
		}
	}
}

func TestSchema_VariantsIndexes(t *testing.T) {
	s := createTestStore(t)

	indexes := getTableIndexes(t, s.db, "variants")
	for _, idx := range []string{"idx_variants_product", "idx_variants_sku_key"} {
		if !contains(indexes, idx) {
			t.Errorf("variants table missing index %q, have %v", idx, indexes)
		}
	}
}

func TestConstraint_UniqueTuplePerProduct(t *testing.T) {
	s := createTestStore(t)

	mustExec(t, s.db, `INSERT INTO products (id, name, created_at, updated_at) VALUES ('p1', 'Tee', 'x', 'x')`)
	mustExec(t, s.db, `INSERT INTO variants (id, product_id, position, options, tuple_hash) VALUES ('v1', 'p1', 0, '{}', 'h')`)

	_, err := s.db.Exec(`INSERT INTO variants (id, product_id, position, options, tuple_hash) VALUES ('v2', 'p1', 1, '{}', 'h')`)
	if err == nil {
		t.Error("expected unique constraint violation for duplicate tuple_hash")
	}
}

func TestConstraint_ProductDeleteCascades(t *testing.T) {
	s := createTestStore(t)

	mustExec(t, s.db, `INSERT INTO products (id, name, created_at, updated_at) VALUES ('p1', 'Tee', 'x', 'x')`)
	mustExec(t, s.db, `INSERT INTO attributes (id, product_id, position, name) VALUES ('a1', 'p1', 0, 'Size')`)
	mustExec(t, s.db, `INSERT INTO attribute_values (id, attribute_id, position, value) VALUES ('s', 'a1', 0, 'S')`)
	mustExec(t, s.db, `INSERT INTO variants (id, product_id, position, options, tuple_hash) VALUES ('v1', 'p1', 0, '{}', 'h')`)

	mustExec(t, s.db, `DELETE FROM products WHERE id = 'p1'`)

	for _, table := range []string{"attributes", "attribute_values", "variants"} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows after product delete, want 0", table, n)
		}
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Apply schema but not migrations.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	indexes := getTableIndexes(t, db, "variants")
	if contains(indexes, "idx_variants_sku_key") {
		t.Fatal("sku_key index should not exist before migration")
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if !contains(getTableIndexes(t, s.db, "variants"), "idx_variants_sku_key") {
		t.Error("migration did not create idx_variants_sku_key")
	}
}

// Helpers

func mustExec(t *testing.T, db *sql.DB, query string) {
	t.Helper()
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
