//go:build unix

package process

import (
	"bytes"
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-planner-supervisor/internal/core/domain"
)

func newTestRunner(out *bytes.Buffer) *runner {
	return &runner{
		environ: func() []string { return []string{"PATH=/usr/bin:/bin"} },
		stdout:  out,
		stderr:  out,
	}
}

func shell(script string) domain.Command {
	return domain.Command{Name: "test", Argv: []string{"/bin/sh", "-c", script}, Output: domain.OutputInherit}
}

func TestRunner_Start_ExitCode(t *testing.T) {
	r := newTestRunner(new(bytes.Buffer))

	proc, err := r.Start(context.Background(), shell("exit 3"))
	require.NoError(t, err)
	assert.Greater(t, proc.PID(), 0)

	code, err := proc.Wait()
	assert.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestRunner_Start_Success(t *testing.T) {
	out := new(bytes.Buffer)
	r := newTestRunner(out)

	proc, err := r.Start(context.Background(), shell("echo hello"))
	require.NoError(t, err)

	code, err := proc.Wait()
	assert.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\n", out.String())
}

func TestRunner_Start_PassesEnv(t *testing.T) {
	r := newTestRunner(new(bytes.Buffer))
	cmd := shell(`test "$TELEGRAM_BOT_TOKEN" = "secret"`)
	cmd.Env = map[string]string{"TELEGRAM_BOT_TOKEN": "secret"}

	proc, err := r.Start(context.Background(), cmd)
	require.NoError(t, err)

	code, err := proc.Wait()
	assert.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRunner_Start_WorkingDir(t *testing.T) {
	out := new(bytes.Buffer)
	r := newTestRunner(out)
	dir := t.TempDir()
	cmd := shell("pwd")
	cmd.Dir = dir

	proc, err := r.Start(context.Background(), cmd)
	require.NoError(t, err)
	_, err = proc.Wait()
	require.NoError(t, err)

	assert.Contains(t, out.String(), dir)
}

func TestRunner_Start_UnknownBinary(t *testing.T) {
	r := newTestRunner(new(bytes.Buffer))

	_, err := r.Start(context.Background(), domain.Command{Name: "ghost", Argv: []string{"/nonexistent/binary"}})
	assert.Error(t, err)
}

func TestRunner_Start_EmptyCommand(t *testing.T) {
	r := newTestRunner(new(bytes.Buffer))

	_, err := r.Start(context.Background(), domain.Command{Name: "empty"})
	assert.ErrorIs(t, err, domain.ErrEmptyCommand)
}

func TestRunner_Signal_ReportsShellStyleCode(t *testing.T) {
	r := newTestRunner(new(bytes.Buffer))

	proc, err := r.Start(context.Background(), shell("sleep 30"))
	require.NoError(t, err)

	// Give the shell a moment to exec sleep inside the new group.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, proc.Signal(syscall.SIGTERM))

	code, err := proc.Wait()
	assert.NoError(t, err)
	assert.Equal(t, 128+int(syscall.SIGTERM), code)
}

func TestRunner_Signal_AfterExit(t *testing.T) {
	r := newTestRunner(new(bytes.Buffer))

	proc, err := r.Start(context.Background(), shell("exit 0"))
	require.NoError(t, err)
	_, err = proc.Wait()
	require.NoError(t, err)

	assert.Error(t, proc.Signal(syscall.SIGTERM))
}

func TestRunner_Start_LogOutput(t *testing.T) {
	r := newTestRunner(new(bytes.Buffer))
	cmd := shell("echo to-logger; echo to-logger-err >&2")
	cmd.Output = domain.OutputLog

	proc, err := r.Start(context.Background(), cmd)
	require.NoError(t, err)

	code, err := proc.Wait()
	assert.NoError(t, err)
	assert.Equal(t, 0, code)
}
