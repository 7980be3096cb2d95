package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

type checker struct{}

// NewChecker creates a DependencyChecker for sqlite:// URLs.
// The database file itself may not exist yet (the migrate step creates it),
// but its directory must.
func NewChecker() ports.DependencyChecker {
	return &checker{}
}

func (c *checker) Kind() domain.DependencyKind {
	return domain.DependencySQLite
}

func (c *checker) Check(ctx context.Context, target string) error {
	path := domain.SQLitePath(target)
	if path == "" {
		return domain.ErrInvalidTarget
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("database directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("database directory %s is not a directory", dir)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("querying database: %w", err)
	}
	return nil
}
