package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

const defaultDependencyTimeout = 60 * time.Second

// DependencyService waits for external resources before setup runs
type DependencyService struct {
	deps     []domain.Dependency
	checkers map[domain.DependencyKind]ports.DependencyChecker
	metrics  ports.MetricsRecorder
	interval time.Duration
}

// NewDependencyService creates a new dependency service
func NewDependencyService(
	deps []domain.Dependency,
	metrics ports.MetricsRecorder,
	checkers ...ports.DependencyChecker,
) *DependencyService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	byKind := make(map[domain.DependencyKind]ports.DependencyChecker, len(checkers))
	for _, c := range checkers {
		byKind[c.Kind()] = c
	}
	return &DependencyService{
		deps:     deps,
		checkers: byKind,
		metrics:  metrics,
		interval: time.Second,
	}
}

// WithInterval overrides the delay between attempts
func (s *DependencyService) WithInterval(d time.Duration) *DependencyService {
	s.interval = d
	return s
}

// Dependencies returns the configured dependencies
func (s *DependencyService) Dependencies() []domain.Dependency {
	return s.deps
}

// WaitAll waits for every dependency concurrently and returns the first failure.
func (s *DependencyService) WaitAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, dep := range s.deps {
		g.Go(func() error {
			return s.Wait(gctx, dep)
		})
	}
	return g.Wait()
}

// Wait polls a single dependency until it accepts connections or its timeout elapses.
func (s *DependencyService) Wait(ctx context.Context, dep domain.Dependency) error {
	checker, ok := s.checkers[dep.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoChecker, dep.Kind)
	}

	timeout := dep.Timeout
	if timeout <= 0 {
		timeout = defaultDependencyTimeout
	}

	entry := log.WithFields(log.Fields{"dependency": dep.Name, "kind": dep.Kind})
	entry.Info("waiting for dependency")

	start := time.Now()
	attempts := 0
	lastErr, err := pollUntilReady(ctx, s.interval, timeout, func(ctx context.Context) error {
		attempts++
		if cerr := checker.Check(ctx, dep.Target); cerr != nil {
			entry.WithError(cerr).WithField("attempt", attempts).Debug("dependency not ready")
			return cerr
		}
		return nil
	})
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveDependency(dep.Name, false, elapsed)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		entry.WithError(lastErr).WithField("attempts", attempts).Error("dependency unavailable")
		return fmt.Errorf("%w: %s: %v", domain.ErrDependencyUnavailable, dep.Name, lastErr)
	}

	s.metrics.ObserveDependency(dep.Name, true, elapsed)
	entry.WithFields(log.Fields{"attempts": attempts, "elapsed_ms": elapsed.Milliseconds()}).Info("dependency ready")
	return nil
}
