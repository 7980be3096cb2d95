package domain

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Value Objects
// ============================================================================

// ServiceState represents the lifecycle state of a supervised service
type ServiceState string

const (
	StatePending ServiceState = "PENDING"
	StateRunning ServiceState = "RUNNING"
	StateReady   ServiceState = "READY"
	StateExited  ServiceState = "EXITED"
	StateFailed  ServiceState = "FAILED"
	StateSkipped ServiceState = "SKIPPED"
)

// IsValid checks if the state is valid
func (s ServiceState) IsValid() bool {
	switch s {
	case StatePending, StateRunning, StateReady, StateExited, StateFailed, StateSkipped:
		return true
	}
	return false
}

// IsAlive reports whether a process is behind the state
func (s ServiceState) IsAlive() bool {
	return s == StateRunning || s == StateReady
}

// RestartPolicy decides whether a service is relaunched after it exits
type RestartPolicy string

const (
	RestartNever     RestartPolicy = "never"
	RestartOnFailure RestartPolicy = "on-failure"
	RestartAlways    RestartPolicy = "always"
)

// IsValid checks if the policy is valid
func (p RestartPolicy) IsValid() bool {
	return p == RestartNever || p == RestartOnFailure || p == RestartAlways
}

// ShouldRestart decides for a given exit code
func (p RestartPolicy) ShouldRestart(exitCode int) bool {
	switch p {
	case RestartAlways:
		return true
	case RestartOnFailure:
		return exitCode != 0
	}
	return false
}

// WaitMode decides when the supervisor stops waiting
type WaitMode string

const (
	// WaitAll blocks until every service has exited.
	WaitAll WaitMode = "all"
	// WaitAny stops the remaining services once the first one exits for good.
	WaitAny WaitMode = "any"
)

// IsValid checks if the mode is valid
func (m WaitMode) IsValid() bool {
	return m == WaitAll || m == WaitAny
}

// ProbeKind selects how readiness is checked
type ProbeKind string

const (
	ProbeHTTP ProbeKind = "http"
	ProbeTCP  ProbeKind = "tcp"
)

// IsValid checks if the kind is valid
func (k ProbeKind) IsValid() bool {
	return k == ProbeHTTP || k == ProbeTCP
}

// ReadinessProbe describes how to tell a service is serving
type ReadinessProbe struct {
	Kind     ProbeKind     `json:"kind" yaml:"kind"`
	Target   string        `json:"target" yaml:"target"` // URL for http, host:port for tcp
	Interval time.Duration `json:"interval" yaml:"interval"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// Validate checks the probe definition
func (p *ReadinessProbe) Validate() error {
	if !p.Kind.IsValid() {
		return ErrInvalidProbeKind
	}
	if p.Target == "" {
		return ErrInvalidTarget
	}
	return nil
}

// ============================================================================
// Entities
// ============================================================================

// ServiceSpec is a long-running child process
type ServiceSpec struct {
	Name        string          `json:"name" yaml:"name"`
	Command     Command         `json:"command" yaml:"command"`
	RequiredEnv []string        `json:"required_env,omitempty" yaml:"required_env,omitempty"`
	Restart     RestartPolicy   `json:"restart" yaml:"restart"`
	MaxRestarts int             `json:"max_restarts,omitempty" yaml:"max_restarts,omitempty"`
	Readiness   *ReadinessProbe `json:"readiness,omitempty" yaml:"readiness,omitempty"`
}

// Validate checks the service definition
func (s *ServiceSpec) Validate() error {
	if s.Name == "" {
		return ErrInvalidServiceName
	}
	if s.Restart == "" {
		s.Restart = RestartNever
	}
	if !s.Restart.IsValid() {
		return ErrInvalidRestartPolicy
	}
	if s.Readiness != nil {
		if err := s.Readiness.Validate(); err != nil {
			return err
		}
	}
	return s.Command.Validate()
}

// MissingEnv lists required variables that are unset or empty
func (s *ServiceSpec) MissingEnv() []string {
	var missing []string
	for _, key := range s.RequiredEnv {
		if v, ok := s.Command.LookupEnv(key); !ok || v == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// ServiceStatus is a point-in-time view of a supervised service
type ServiceStatus struct {
	Name      string       `json:"name"`
	State     ServiceState `json:"state"`
	PID       int          `json:"pid,omitempty"`
	Restarts  int          `json:"restarts"`
	ExitCode  *int         `json:"exit_code,omitempty"`
	StartedAt *time.Time   `json:"started_at,omitempty"`
	ExitedAt  *time.Time   `json:"exited_at,omitempty"`
	HasProbe  bool         `json:"has_probe"`
	LastError string       `json:"last_error,omitempty"`
}

// IsReady reports whether the service counts as serving
func (s ServiceStatus) IsReady() bool {
	if s.State == StateReady {
		return true
	}
	return s.State == StateRunning && !s.HasProbe
}

// RunReport summarises a supervisor run
type RunReport struct {
	RunID    uuid.UUID       `json:"run_id"`
	Services []ServiceStatus `json:"services"`
	ExitCode int             `json:"exit_code"`
}
