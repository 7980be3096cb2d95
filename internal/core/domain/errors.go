package domain

import "errors"

// ============================================================================
// Setup Errors
// ============================================================================

var (
	ErrSetupFailed      = errors.New("setup step failed")
	ErrEmptyCommand     = errors.New("command is required")
	ErrInvalidStepName  = errors.New("setup step name is required")
	ErrInvalidPolicy    = errors.New("invalid setup policy")
	ErrStepTimedOut     = errors.New("setup step timed out")
	ErrInvalidDirectory = errors.New("directory path is required")
)

// ============================================================================
// Service Errors
// ============================================================================

// Not found errors
var (
	ErrServiceNotFound = errors.New("service not found")
)

// Validation errors
var (
	ErrInvalidServiceName   = errors.New("service name is required")
	ErrDuplicateServiceName = errors.New("service with this name already exists")
	ErrNoServices           = errors.New("at least one service is required")
	ErrInvalidRestartPolicy = errors.New("invalid restart policy")
	ErrInvalidWaitMode      = errors.New("invalid wait mode")
	ErrInvalidProbeKind     = errors.New("invalid readiness probe kind")
	ErrInvalidOutputMode    = errors.New("invalid output mode")
	ErrInvalidServiceState  = errors.New("invalid service state")
)

// Runtime errors
var (
	ErrMissingEnv         = errors.New("required environment variable is not set")
	ErrServiceNotReady    = errors.New("service did not become ready")
	ErrAlreadyRunning     = errors.New("supervisor is already running")
	ErrSupervisorStopping = errors.New("supervisor is stopping")
)

// ============================================================================
// Dependency Errors
// ============================================================================

var (
	ErrInvalidDependencyKind = errors.New("invalid dependency kind")
	ErrInvalidTarget         = errors.New("dependency target is required")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrNoChecker             = errors.New("no checker registered for dependency kind")
)
