package ports

import (
	"context"

	"task-planner-supervisor/internal/core/domain"
)

// ReadinessProber makes a single readiness attempt for one probe kind
type ReadinessProber interface {
	Kind() domain.ProbeKind
	Probe(ctx context.Context, target string) error
}
