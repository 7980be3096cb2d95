package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

type checker struct{}

// NewChecker creates a DependencyChecker for redis:// URLs
func NewChecker() ports.DependencyChecker {
	return &checker{}
}

func (c *checker) Kind() domain.DependencyKind {
	return domain.DependencyRedis
}

func (c *checker) Check(ctx context.Context, target string) error {
	opts, err := redis.ParseURL(target)
	if err != nil {
		return fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = 1
	opts.MaxRetries = -1

	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
