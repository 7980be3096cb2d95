package domain

import (
	"time"
)

// ============================================================================
// Value Objects
// ============================================================================

// SetupPolicy decides what a failing setup step does to startup
type SetupPolicy string

const (
	// PolicyStrict aborts startup before any service is launched.
	PolicyStrict SetupPolicy = "strict"
	// PolicyBestEffort logs the failure and carries on with the next step.
	PolicyBestEffort SetupPolicy = "best-effort"
)

// IsValid checks if the policy is valid
func (p SetupPolicy) IsValid() bool {
	return p == PolicyStrict || p == PolicyBestEffort
}

// ============================================================================
// Entities
// ============================================================================

// SetupStep is a one-shot command run before services start
type SetupStep struct {
	Name    string        `json:"name" yaml:"name"`
	Command Command       `json:"command" yaml:"command"`
	Policy  SetupPolicy   `json:"policy" yaml:"policy"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Retries int           `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// NewSetupStep creates a SetupStep with validation
func NewSetupStep(name string, argv []string, policy SetupPolicy) (*SetupStep, error) {
	step := &SetupStep{
		Name:    name,
		Command: Command{Name: name, Argv: argv, Output: OutputInherit},
		Policy:  policy,
	}
	if err := step.Validate(); err != nil {
		return nil, err
	}
	return step, nil
}

// Validate checks the step definition
func (s *SetupStep) Validate() error {
	if s.Name == "" {
		return ErrInvalidStepName
	}
	if !s.Policy.IsValid() {
		return ErrInvalidPolicy
	}
	if s.Retries < 0 {
		s.Retries = 0
	}
	return s.Command.Validate()
}

// StepResult records how a setup step ended
type StepResult struct {
	Step      string        `json:"step"`
	Policy    SetupPolicy   `json:"policy"`
	ExitCode  int           `json:"exit_code"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
	Tolerated bool          `json:"tolerated"`
	Err       error         `json:"-"`
}

// Succeeded reports whether the step exited cleanly
func (r StepResult) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}
