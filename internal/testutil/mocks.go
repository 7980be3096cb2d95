package testutil

import (
	"context"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/stretchr/testify/mock"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

// MockProcessRunner is a mock of ProcessRunner.
type MockProcessRunner struct {
	mock.Mock
}

func (m *MockProcessRunner) Start(ctx context.Context, cmd domain.Command) (ports.Process, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Process), args.Error(1)
}

// FakeProcess is a controllable Process. Wait blocks until Exit is called,
// or until a signal arrives when ExitOnSignal is set.
type FakeProcess struct {
	pid          int
	exitOnSignal bool

	mu      sync.Mutex
	signals []os.Signal
	exited  chan struct{}
	once    sync.Once
	code    int
}

// NewFakeProcess returns a running fake that only exits through Exit
func NewFakeProcess(pid int) *FakeProcess {
	return &FakeProcess{pid: pid, exited: make(chan struct{})}
}

// NewExitedProcess returns a fake that has already exited with code
func NewExitedProcess(pid, code int) *FakeProcess {
	p := NewFakeProcess(pid)
	p.Exit(code)
	return p
}

// ExitOnSignal makes the fake exit with 128+signo when signalled, like a
// child that honours SIGTERM.
func (p *FakeProcess) ExitOnSignal() *FakeProcess {
	p.exitOnSignal = true
	return p
}

// Exit terminates the fake. Only the first call has an effect.
func (p *FakeProcess) Exit(code int) {
	p.once.Do(func() {
		p.mu.Lock()
		p.code = code
		p.mu.Unlock()
		close(p.exited)
	})
}

func (p *FakeProcess) PID() int {
	return p.pid
}

func (p *FakeProcess) Wait() (int, error) {
	<-p.exited
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, nil
}

func (p *FakeProcess) Signal(sig os.Signal) error {
	select {
	case <-p.exited:
		return os.ErrProcessDone
	default:
	}

	p.mu.Lock()
	p.signals = append(p.signals, sig)
	p.mu.Unlock()

	if p.exitOnSignal || sig == os.Kill {
		code := 128 + 9
		if s, ok := sig.(syscall.Signal); ok {
			code = 128 + int(s)
		}
		p.Exit(code)
	}
	return nil
}

// Signals returns the signals delivered so far
func (p *FakeProcess) Signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}

// Exited reports whether the fake has terminated
func (p *FakeProcess) Exited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// MockDependencyChecker is a mock of DependencyChecker.
type MockDependencyChecker struct {
	mock.Mock
}

func (m *MockDependencyChecker) Kind() domain.DependencyKind {
	args := m.Called()
	return args.Get(0).(domain.DependencyKind)
}

func (m *MockDependencyChecker) Check(ctx context.Context, target string) error {
	args := m.Called(ctx, target)
	return args.Error(0)
}

// MockReadinessProber is a mock of ReadinessProber.
type MockReadinessProber struct {
	mock.Mock
}

func (m *MockReadinessProber) Kind() domain.ProbeKind {
	args := m.Called()
	return args.Get(0).(domain.ProbeKind)
}

func (m *MockReadinessProber) Probe(ctx context.Context, target string) error {
	args := m.Called(ctx, target)
	return args.Error(0)
}

// MockMetricsRecorder is a mock of MetricsRecorder.
type MockMetricsRecorder struct {
	mock.Mock
}

func (m *MockMetricsRecorder) ObserveStep(step string, outcome string, d time.Duration) {
	m.Called(step, outcome, d)
}

func (m *MockMetricsRecorder) ServiceStarted(service string) {
	m.Called(service)
}

func (m *MockMetricsRecorder) ServiceExited(service string, exitCode int) {
	m.Called(service, exitCode)
}

func (m *MockMetricsRecorder) ServiceReady(service string) {
	m.Called(service)
}

func (m *MockMetricsRecorder) ServiceRestarted(service string) {
	m.Called(service)
}

func (m *MockMetricsRecorder) ObserveDependency(name string, ok bool, d time.Duration) {
	m.Called(name, ok, d)
}
