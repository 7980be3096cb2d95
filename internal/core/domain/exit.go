package domain

import "fmt"

// ExitError carries the process exit code the supervisor should terminate with
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("%v (exit status %d)", e.Err, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError wraps err with a non-zero code; code 0 is promoted to 1.
func NewExitError(code int, err error) *ExitError {
	if code == 0 {
		code = 1
	}
	return &ExitError{Code: code, Err: err}
}
