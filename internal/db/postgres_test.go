package db_test

import (
	"testing"

	"github.com/ganttwork/planner/internal/db"
)

func TestMigrationURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/planner":   "pgx5://u:p@localhost:5432/planner",
		"postgresql://u:p@localhost:5432/planner": "pgx5://u:p@localhost:5432/planner",
		"u:p@localhost/planner":                   "pgx5://u:p@localhost/planner",
	}
	for in, want := range cases {
		if got := db.MigrationURL(in); got != want {
			t.Errorf("MigrationURL(%q) = %q, want %q", in, got, want)
		}
	}
}
