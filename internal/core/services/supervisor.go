package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

const (
	defaultProbeInterval = 500 * time.Millisecond
	defaultProbeTimeout  = 60 * time.Second
)

// SupervisorOptions tunes process supervision
type SupervisorOptions struct {
	WaitMode     domain.WaitMode
	StopSignal   os.Signal
	StopTimeout  time.Duration
	RestartDelay time.Duration
	RestartCap   time.Duration
}

func (o SupervisorOptions) withDefaults() SupervisorOptions {
	if o.WaitMode == "" {
		o.WaitMode = domain.WaitAll
	}
	if o.StopSignal == nil {
		o.StopSignal = syscall.SIGTERM
	}
	if o.RestartDelay <= 0 {
		o.RestartDelay = time.Second
	}
	if o.RestartCap <= 0 {
		o.RestartCap = 30 * time.Second
	}
	return o
}

type child struct {
	proc   ports.Process
	cancel context.CancelFunc
}

// Supervisor launches the services and blocks until they have exited
type Supervisor struct {
	runner  ports.ProcessRunner
	probers map[domain.ProbeKind]ports.ReadinessProber
	metrics ports.MetricsRecorder
	specs   []domain.ServiceSpec
	opts    SupervisorOptions
	board   *StatusBoard
	runID   uuid.UUID
	log     *log.Entry

	mu       sync.Mutex
	children map[string]child
	stopping bool
	running  bool
}

// NewSupervisor creates a new supervisor for specs, launched in the given order
func NewSupervisor(
	runner ports.ProcessRunner,
	metrics ports.MetricsRecorder,
	specs []domain.ServiceSpec,
	opts SupervisorOptions,
	probers ...ports.ReadinessProber,
) *Supervisor {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	byKind := make(map[domain.ProbeKind]ports.ReadinessProber, len(probers))
	for _, p := range probers {
		byKind[p.Kind()] = p
	}
	runID := uuid.New()
	return &Supervisor{
		runner:   runner,
		probers:  byKind,
		metrics:  metrics,
		specs:    specs,
		opts:     opts.withDefaults(),
		board:    NewStatusBoard(specs),
		runID:    runID,
		log:      log.WithField("run_id", runID.String()),
		children: make(map[string]child),
	}
}

// RunID identifies this supervisor run in logs and reports
func (s *Supervisor) RunID() uuid.UUID {
	return s.runID
}

// Board exposes the live status board
func (s *Supervisor) Board() *StatusBoard {
	return s.board
}

// Status returns a snapshot of every service
func (s *Supervisor) Status() []domain.ServiceStatus {
	return s.board.Snapshot()
}

// Run launches every service in order and blocks until all of them have exited
// (or, in WaitAny mode, until the first one exits for good and the rest are stopped).
// Cancelling ctx forwards the stop signal to every live child; Run still waits
// for them to exit.
func (s *Supervisor) Run(ctx context.Context) (*domain.RunReport, error) {
	if len(s.specs) == 0 {
		return nil, domain.ErrNoServices
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, domain.ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	stopCh := make(chan struct{})
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func(reason string) {
		stopOnce.Do(func() {
			s.log.WithField("reason", reason).Info("stopping services")
			close(stopCh)
			go s.shutdown(done)
		})
	}

	var g errgroup.Group
	for _, spec := range s.specs {
		select {
		case <-stopCh:
			s.board.MarkSkipped(spec.Name, 0, context.Canceled)
			continue
		default:
		}

		entry := s.log.WithField("service", spec.Name)

		if missing := spec.MissingEnv(); len(missing) > 0 {
			err := fmt.Errorf("%w: %s", domain.ErrMissingEnv, strings.Join(missing, ", "))
			entry.WithError(err).Error("service not started")
			s.board.MarkSkipped(spec.Name, 1, err)
			s.metrics.ServiceExited(spec.Name, 1)
			if s.opts.WaitMode == domain.WaitAny {
				stop(spec.Name + " skipped")
			}
			continue
		}

		proc, err := s.start(ctx, spec)
		if errors.Is(err, domain.ErrSupervisorStopping) {
			s.board.MarkSkipped(spec.Name, 0, err)
			continue
		}
		if err != nil {
			entry.WithError(err).Error("service failed to start")
			s.board.MarkFailed(spec.Name, err)
			s.metrics.ServiceExited(spec.Name, 127)
			if s.opts.WaitMode == domain.WaitAny {
				stop(spec.Name + " failed to start")
			}
			continue
		}

		g.Go(func() error {
			s.monitor(ctx, spec, proc, stopCh)
			if s.opts.WaitMode == domain.WaitAny {
				stop(spec.Name + " exited")
			}
			return nil
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop("signal received")
		case <-done:
		}
	}()

	_ = g.Wait()
	close(done)

	report := s.report()
	s.log.WithField("exit_code", report.ExitCode).Info("all services exited")
	return report, nil
}

// start launches spec unless shutdown has already taken its snapshot of the
// live children, in which case the new process would never be signalled.
func (s *Supervisor) start(ctx context.Context, spec domain.ServiceSpec) (ports.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return nil, domain.ErrSupervisorStopping
	}
	return s.launch(ctx, spec)
}

// launch starts one process for spec. Callers hold s.mu.
func (s *Supervisor) launch(ctx context.Context, spec domain.ServiceSpec) (ports.Process, error) {
	proc, err := s.runner.Start(ctx, spec.Command)
	if err != nil {
		return nil, err
	}

	probeCtx, cancel := context.WithCancel(ctx)
	s.children[spec.Name] = child{proc: proc, cancel: cancel}
	s.board.MarkStarted(spec.Name, proc.PID())
	s.metrics.ServiceStarted(spec.Name)
	s.log.WithFields(log.Fields{
		"service": spec.Name,
		"pid":     proc.PID(),
		"command": spec.Command.String(),
	}).Info("service started")

	if spec.Readiness != nil {
		go s.awaitReady(probeCtx, spec)
	}
	return proc, nil
}

// monitor waits on the service's process and relaunches it per its restart policy.
func (s *Supervisor) monitor(ctx context.Context, spec domain.ServiceSpec, proc ports.Process, stopCh <-chan struct{}) {
	entry := s.log.WithField("service", spec.Name)
	backoff := wait.Backoff{
		Duration: s.opts.RestartDelay,
		Factor:   2.0,
		Jitter:   0.1,
		Steps:    64,
		Cap:      s.opts.RestartCap,
	}
	restarts := 0

	for {
		code, err := proc.Wait()

		s.mu.Lock()
		if c, ok := s.children[spec.Name]; ok {
			c.cancel()
			delete(s.children, spec.Name)
		}
		stopping := s.stopping
		s.mu.Unlock()

		fields := log.Fields{"pid": proc.PID(), "exit_code": code}
		if err != nil {
			entry.WithFields(fields).WithError(err).Error("lost track of service process")
		} else if code != 0 {
			entry.WithFields(fields).Warn("service exited")
		} else {
			entry.WithFields(fields).Info("service exited")
		}
		s.board.MarkExited(spec.Name, code)
		s.metrics.ServiceExited(spec.Name, code)

		if stopping || !spec.Restart.ShouldRestart(code) {
			return
		}
		if spec.MaxRestarts > 0 && restarts >= spec.MaxRestarts {
			entry.WithField("restarts", restarts).Warn("restart limit reached")
			return
		}

		delay := backoff.Step()
		entry.WithField("delay_ms", delay.Milliseconds()).Info("restarting service")
		timer := time.NewTimer(delay)
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}

		next, err := s.start(ctx, spec)
		if errors.Is(err, domain.ErrSupervisorStopping) {
			return
		}
		if err != nil {
			entry.WithError(err).Error("service failed to restart")
			s.board.MarkFailed(spec.Name, err)
			return
		}

		restarts++
		s.board.IncRestarts(spec.Name)
		s.metrics.ServiceRestarted(spec.Name)
		proc = next
	}
}

// shutdown forwards the stop signal to every live child and kills whatever
// is still alive once the stop timeout elapses.
func (s *Supervisor) shutdown(done <-chan struct{}) {
	s.mu.Lock()
	s.stopping = true
	live := make(map[string]ports.Process, len(s.children))
	for name, c := range s.children {
		live[name] = c.proc
	}
	s.mu.Unlock()

	for name, proc := range live {
		entry := s.log.WithFields(log.Fields{"service": name, "pid": proc.PID(), "signal": s.opts.StopSignal.String()})
		if err := proc.Signal(s.opts.StopSignal); err != nil {
			entry.WithError(err).Warn("failed to signal service")
			continue
		}
		entry.Info("signalled service")
	}

	if s.opts.StopTimeout <= 0 {
		return
	}
	timer := time.NewTimer(s.opts.StopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return
	case <-timer.C:
	}

	s.mu.Lock()
	remaining := make(map[string]ports.Process, len(s.children))
	for name, c := range s.children {
		remaining[name] = c.proc
	}
	s.mu.Unlock()

	for name, proc := range remaining {
		s.log.WithFields(log.Fields{"service": name, "pid": proc.PID()}).Warn("stop timeout elapsed, killing service")
		_ = proc.Signal(os.Kill)
	}
}

func (s *Supervisor) awaitReady(ctx context.Context, spec domain.ServiceSpec) {
	probe := spec.Readiness
	entry := s.log.WithFields(log.Fields{"service": spec.Name, "probe": probe.Kind, "target": probe.Target})

	prober, ok := s.probers[probe.Kind]
	if !ok {
		entry.Warn("no prober registered for readiness probe")
		return
	}

	interval := probe.Interval
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	timeout := probe.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	start := time.Now()
	lastErr, err := pollUntilReady(ctx, interval, timeout, func(ctx context.Context) error {
		return prober.Probe(ctx, probe.Target)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		entry.WithError(lastErr).Warn(domain.ErrServiceNotReady.Error())
		return
	}

	s.board.MarkReady(spec.Name)
	s.metrics.ServiceReady(spec.Name)
	entry.WithField("elapsed_ms", time.Since(start).Milliseconds()).Info("service ready")
}

// report builds the final summary. The exit code is the first non-zero final
// exit code in service order, or 0.
func (s *Supervisor) report() *domain.RunReport {
	statuses := s.board.Snapshot()
	code := 0
	for _, st := range statuses {
		if st.ExitCode != nil && *st.ExitCode != 0 {
			code = *st.ExitCode
			break
		}
	}
	return &domain.RunReport{RunID: s.runID, Services: statuses, ExitCode: code}
}
