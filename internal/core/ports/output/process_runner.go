package ports

import (
	"context"
	"os"

	"task-planner-supervisor/internal/core/domain"
)

// Process is a started child
type Process interface {
	// PID returns the operating system process id
	PID() int

	// Wait blocks until the process exits and returns its exit code.
	// A process killed by a signal reports 128+signo. The error is non-nil
	// only when the exit status could not be collected at all.
	Wait() (int, error)

	// Signal delivers sig to the process group
	Signal(sig os.Signal) error
}

// ProcessRunner defines the contract for launching child processes
type ProcessRunner interface {
	// Start launches cmd without waiting for it. Cancelling ctx does not
	// stop the child; callers signal it through the returned Process.
	Start(ctx context.Context, cmd domain.Command) (Process, error)
}
