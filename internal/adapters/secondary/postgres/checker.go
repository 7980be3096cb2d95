package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

type checker struct{}

// NewChecker creates a DependencyChecker for postgres:// URLs and keyword/value DSNs
func NewChecker() ports.DependencyChecker {
	return &checker{}
}

func (c *checker) Kind() domain.DependencyKind {
	return domain.DependencyPostgres
}

func (c *checker) Check(ctx context.Context, target string) error {
	poolCfg, err := pgxpool.ParseConfig(target)
	if err != nil {
		return fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = 1
	poolCfg.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("create db pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	return nil
}
