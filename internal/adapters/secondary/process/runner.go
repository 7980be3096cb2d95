//go:build unix

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	log "github.com/sirupsen/logrus"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

type runner struct {
	environ func() []string
	stdout  io.Writer
	stderr  io.Writer
}

// NewRunner creates a ProcessRunner that starts each child in its own process group
func NewRunner() ports.ProcessRunner {
	return &runner{
		environ: os.Environ,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

func (r *runner) Start(_ context.Context, cmd domain.Command) (ports.Process, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// #nosec G204 -- argv comes from operator configuration
	c := exec.Command(cmd.Program(), cmd.Args()...)
	c.Env = cmd.Environ(r.environ())
	c.Dir = cmd.Dir
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var closers []io.Closer
	if cmd.Output == domain.OutputLog {
		entry := log.WithField("service", cmd.Name)
		stdout := entry.WithField("stream", "stdout").WriterLevel(log.InfoLevel)
		stderr := entry.WithField("stream", "stderr").WriterLevel(log.WarnLevel)
		c.Stdout, c.Stderr = stdout, stderr
		closers = append(closers, stdout, stderr)
	} else {
		c.Stdout, c.Stderr = r.stdout, r.stderr
	}

	if err := c.Start(); err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("start %s: %w", cmd.Name, err)
	}
	return &process{cmd: c, closers: closers}, nil
}

type process struct {
	cmd     *exec.Cmd
	closers []io.Closer
}

func (p *process) PID() int {
	return p.cmd.Process.Pid
}

func (p *process) Wait() (int, error) {
	err := p.cmd.Wait()
	closeAll(p.closers)
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitCode(exitErr.ProcessState), nil
	}
	return 1, err
}

func (p *process) Signal(sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return p.cmd.Process.Signal(sig)
	}
	// Negative pid targets the whole group, so shell wrappers pass it on.
	err := syscall.Kill(-p.cmd.Process.Pid, s)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// exitCode follows the shell convention: 128+signo for a signalled child.
func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
