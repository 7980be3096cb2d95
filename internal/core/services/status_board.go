package services

import (
	"sync"
	"time"

	"task-planner-supervisor/internal/core/domain"
)

// StatusBoard tracks the live status of every supervised service
type StatusBoard struct {
	mu       sync.RWMutex
	order    []string
	statuses map[string]*domain.ServiceStatus
	now      func() time.Time
}

// NewStatusBoard creates a board with one PENDING entry per spec, in spec order
func NewStatusBoard(specs []domain.ServiceSpec) *StatusBoard {
	b := &StatusBoard{
		statuses: make(map[string]*domain.ServiceStatus, len(specs)),
		now:      time.Now,
	}
	for _, spec := range specs {
		b.order = append(b.order, spec.Name)
		b.statuses[spec.Name] = &domain.ServiceStatus{
			Name:     spec.Name,
			State:    domain.StatePending,
			HasProbe: spec.Readiness != nil,
		}
	}
	return b
}

func (b *StatusBoard) update(name string, fn func(s *domain.ServiceStatus)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.statuses[name]; ok {
		fn(s)
	}
}

// MarkStarted records a fresh process for the service
func (b *StatusBoard) MarkStarted(name string, pid int) {
	now := b.now()
	b.update(name, func(s *domain.ServiceStatus) {
		s.State = domain.StateRunning
		s.PID = pid
		s.StartedAt = &now
		s.ExitedAt = nil
		s.ExitCode = nil
		s.LastError = ""
	})
}

// MarkReady flips a running service to READY
func (b *StatusBoard) MarkReady(name string) {
	b.update(name, func(s *domain.ServiceStatus) {
		if s.State == domain.StateRunning {
			s.State = domain.StateReady
		}
	})
}

// MarkExited records the exit of the service's current process
func (b *StatusBoard) MarkExited(name string, exitCode int) {
	now := b.now()
	b.update(name, func(s *domain.ServiceStatus) {
		code := exitCode
		s.ExitCode = &code
		s.ExitedAt = &now
		s.PID = 0
		if exitCode == 0 {
			s.State = domain.StateExited
		} else {
			s.State = domain.StateFailed
		}
	})
}

// MarkSkipped records a service that was never launched
func (b *StatusBoard) MarkSkipped(name string, exitCode int, reason error) {
	now := b.now()
	b.update(name, func(s *domain.ServiceStatus) {
		code := exitCode
		s.State = domain.StateSkipped
		s.ExitCode = &code
		s.ExitedAt = &now
		if reason != nil {
			s.LastError = reason.Error()
		}
	})
}

// MarkFailed records an error without a process exit, such as a failed start
func (b *StatusBoard) MarkFailed(name string, err error) {
	now := b.now()
	b.update(name, func(s *domain.ServiceStatus) {
		code := 127
		s.State = domain.StateFailed
		s.ExitCode = &code
		s.ExitedAt = &now
		s.PID = 0
		if err != nil {
			s.LastError = err.Error()
		}
	})
}

// IncRestarts counts one relaunch
func (b *StatusBoard) IncRestarts(name string) {
	b.update(name, func(s *domain.ServiceStatus) {
		s.Restarts++
	})
}

// Get returns a copy of one status
func (b *StatusBoard) Get(name string) (domain.ServiceStatus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.statuses[name]
	if !ok {
		return domain.ServiceStatus{}, domain.ErrServiceNotFound
	}
	return *s, nil
}

// Snapshot returns copies of all statuses in spec order
func (b *StatusBoard) Snapshot() []domain.ServiceStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.ServiceStatus, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.statuses[name])
	}
	return out
}

// AllReady reports whether every launched service counts as serving.
// Skipped services are ignored; an empty board is not ready.
func (b *StatusBoard) AllReady() bool {
	snapshot := b.Snapshot()
	launched := 0
	for _, s := range snapshot {
		if s.State == domain.StateSkipped {
			continue
		}
		launched++
		if !s.IsReady() {
			return false
		}
	}
	return launched > 0
}
