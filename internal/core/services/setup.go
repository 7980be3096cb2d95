package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

// SetupService runs the one-shot steps that precede the services
type SetupService struct {
	runner     ports.ProcessRunner
	fs         afero.Fs
	metrics    ports.MetricsRecorder
	dirs       []string
	steps      []domain.SetupStep
	retryDelay time.Duration
}

// NewSetupService creates a new setup service
func NewSetupService(
	runner ports.ProcessRunner,
	fs afero.Fs,
	metrics ports.MetricsRecorder,
	dirs []string,
	steps []domain.SetupStep,
) *SetupService {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &SetupService{
		runner:     runner,
		fs:         fs,
		metrics:    metrics,
		dirs:       dirs,
		steps:      steps,
		retryDelay: time.Second,
	}
}

// WithRetryDelay overrides the initial delay between step attempts
func (s *SetupService) WithRetryDelay(d time.Duration) *SetupService {
	s.retryDelay = d
	return s
}

// Steps returns the configured steps
func (s *SetupService) Steps() []domain.SetupStep {
	return s.steps
}

// EnsureDirs creates the static and media directories; existing ones are left alone.
func (s *SetupService) EnsureDirs() error {
	for _, dir := range s.dirs {
		if dir == "" {
			return domain.ErrInvalidDirectory
		}
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
		log.WithField("dir", dir).Debug("directory ready")
	}
	return nil
}

// Run prepares directories and runs every step in order.
// A strict step that fails stops the sequence and returns an error wrapping
// ErrSetupFailed carrying the step's exit code. Best-effort failures are
// logged and tolerated.
func (s *SetupService) Run(ctx context.Context) ([]domain.StepResult, error) {
	if err := s.EnsureDirs(); err != nil {
		return nil, domain.NewExitError(1, fmt.Errorf("%w: %v", domain.ErrSetupFailed, err))
	}

	results := make([]domain.StepResult, 0, len(s.steps))
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := s.runStep(ctx, step)
		entry := log.WithFields(log.Fields{
			"step":        step.Name,
			"policy":      step.Policy,
			"exit_code":   res.ExitCode,
			"attempts":    res.Attempts,
			"duration_ms": res.Duration.Milliseconds(),
		})

		switch {
		case res.Succeeded():
			entry.Info("setup step succeeded")
			s.metrics.ObserveStep(step.Name, ports.OutcomeSucceeded, res.Duration)
			results = append(results, res)

		case step.Policy == domain.PolicyBestEffort:
			res.Tolerated = true
			entry.WithError(res.Err).Warn("setup step failed, continuing")
			s.metrics.ObserveStep(step.Name, ports.OutcomeTolerated, res.Duration)
			results = append(results, res)

		default:
			entry.WithError(res.Err).Error("setup step failed, aborting startup")
			s.metrics.ObserveStep(step.Name, ports.OutcomeFailed, res.Duration)
			results = append(results, res)
			return results, domain.NewExitError(res.ExitCode, fmt.Errorf("%w: %s", domain.ErrSetupFailed, step.Name))
		}
	}
	return results, nil
}

func (s *SetupService) runStep(ctx context.Context, step domain.SetupStep) domain.StepResult {
	res := domain.StepResult{Step: step.Name, Policy: step.Policy}
	start := time.Now()

	backoff := wait.Backoff{
		Duration: s.retryDelay,
		Factor:   2.0,
		Jitter:   0.1,
		Steps:    step.Retries + 1,
		Cap:      30 * time.Second,
	}
	retriable := func(error) bool { return ctx.Err() == nil }

	err := retry.OnError(backoff, retriable, func() error {
		res.Attempts++
		code, err := s.runOnce(ctx, step)
		res.ExitCode = code
		if err != nil {
			return err
		}
		if code != 0 {
			return fmt.Errorf("exit status %d", code)
		}
		return nil
	})

	res.Err = err
	res.Duration = time.Since(start)
	if err != nil && res.ExitCode == 0 {
		res.ExitCode = 1
	}
	return res
}

type waitResult struct {
	code int
	err  error
}

func (s *SetupService) runOnce(ctx context.Context, step domain.SetupStep) (int, error) {
	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	log.WithFields(log.Fields{"step": step.Name, "command": step.Command.String()}).Info("running setup step")
	proc, err := s.runner.Start(stepCtx, step.Command)
	if err != nil {
		// Same code a shell reports for a command it cannot run.
		return 127, err
	}

	done := make(chan waitResult, 1)
	go func() {
		code, err := proc.Wait()
		done <- waitResult{code: code, err: err}
	}()

	select {
	case r := <-done:
		return r.code, r.err
	case <-stepCtx.Done():
		_ = proc.Signal(os.Kill)
		r := <-done
		if errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return r.code, domain.ErrStepTimedOut
		}
		return r.code, stepCtx.Err()
	}
}
