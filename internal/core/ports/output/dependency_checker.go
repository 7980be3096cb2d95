package ports

import (
	"context"

	"task-planner-supervisor/internal/core/domain"
)

// DependencyChecker verifies that one kind of dependency accepts connections
type DependencyChecker interface {
	// Kind returns the dependency kind this checker handles
	Kind() domain.DependencyKind

	// Check makes a single attempt against target
	Check(ctx context.Context, target string) error
}
