package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"task-planner-supervisor/internal/core/domain"
)

func TestChecker_Kind(t *testing.T) {
	assert.Equal(t, domain.DependencyRedis, NewChecker().Kind())
}

func TestChecker_Check_InvalidURL(t *testing.T) {
	err := NewChecker().Check(context.Background(), "http://localhost:6379")
	assert.ErrorContains(t, err, "parse redis URL")
}

func TestChecker_Check_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := NewChecker().Check(ctx, "redis://127.0.0.1:1/0")
	assert.ErrorContains(t, err, "redis ping failed")
}
