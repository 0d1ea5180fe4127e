package database

import "testing"

func TestRewritePlaceholdersToNumbered(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "no placeholders",
			query:    "SELECT id FROM children",
			expected: "SELECT id FROM children",
		},
		{
			name:     "single placeholder",
			query:    "SELECT id FROM children WHERE id = ?",
			expected: "SELECT id FROM children WHERE id = $1",
		},
		{
			name:     "multiple placeholders",
			query:    "UPDATE tasks SET done = ? WHERE id = ? AND child_id = ?",
			expected: "UPDATE tasks SET done = $1 WHERE id = $2 AND child_id = $3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewritePlaceholdersToNumbered(tt.query); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDialectProperties(t *testing.T) {
	tests := []struct {
		name             string
		dialect          Dialect
		driverName       string
		migrationsSubdir string
		lastInsertID     bool
	}{
		{"sqlite", NewSQLiteDialect(), "sqlite3", "sqlite", true},
		{"postgres", NewPostgresDialect(), "postgres", "postgres", false},
		{"mysql", NewMySQLDialect(), "mysql", "mysql", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driverName {
				t.Errorf("DriverName: expected %q, got %q", tt.driverName, got)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrationsSubdir {
				t.Errorf("MigrationsSubdir: expected %q, got %q", tt.migrationsSubdir, got)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId: expected %v, got %v", tt.lastInsertID, got)
			}
		})
	}
}

func TestPostgresRewriteQuery(t *testing.T) {
	d := NewPostgresDialect()
	got := d.RewriteQuery("INSERT INTO parents (username, email) VALUES (?, ?)")
	want := "INSERT INTO parents (username, email) VALUES ($1, $2)"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSQLiteRewriteQueryIsIdentity(t *testing.T) {
	d := NewSQLiteDialect()
	query := "SELECT id FROM tasks WHERE child_id = ? AND due_date = ?"
	if got := d.RewriteQuery(query); got != query {
		t.Errorf("Expected query unchanged, got %q", got)
	}
}
