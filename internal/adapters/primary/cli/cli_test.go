//go:build unix

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-planner-supervisor/internal/core/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supervisor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// execute runs the root command with no dependency URLs in the environment
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	return run(t, args...)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfgFile = ""
		skipDeps = false
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestConfigCmd_PrintsYAML(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: warn
services:
  - name: web
    command: [gunicorn, task_planner.wsgi:application]
`)

	out, err := execute(t, "config", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "# loaded from "+path)
	assert.Contains(t, out, "level: warn")
	assert.Contains(t, out, "name: web")
	assert.Contains(t, out, "- gunicorn")
	assert.Contains(t, out, "name: collectstatic")

	// The printed configuration loads back to the same output.
	again, err := execute(t, "config", "--config", writeConfig(t, out))
	require.NoError(t, err)
	assert.Equal(t, strings.SplitN(out, "\n", 2)[1], strings.SplitN(again, "\n", 2)[1])
}

func TestConfigCmd_MasksDatabasePassword(t *testing.T) {
	path := writeConfig(t, "logger:\n  level: error\n")
	t.Setenv("DATABASE_URL", "postgres://app:s3cret@db:5432/tasks")
	t.Setenv("REDIS_URL", "")

	out, err := run(t, "config", "--config", path)
	require.NoError(t, err)

	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "target: postgres://app:xxxxx@db:5432/tasks")
}

func TestConfigCmd_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "supervisor:\n  wait_mode: some\n")

	_, err := execute(t, "config", "--config", path)
	assert.ErrorIs(t, err, domain.ErrInvalidWaitMode)
	assert.Equal(t, 1, ExitCode(err))
}

func TestCheckCmd_NoDependencies(t *testing.T) {
	path := writeConfig(t, "logger:\n  level: error\n")

	out, err := execute(t, "check", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "no dependencies configured")
}

func TestSetupCmd_RunsSteps(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staticfiles")
	path := writeConfig(t, `
logger:
  level: error
setup:
  dirs: [`+dir+`]
  steps:
    - name: noop
      command: ["true"]
`)

	_, err := execute(t, "setup", "--skip-deps", "--config", path)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSetupCmd_StrictFailureExitCode(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: error
setup:
  dirs: []
  steps:
    - name: broken
      command: [sh, -c, "exit 3"]
      policy: strict
    - name: never
      command: ["true"]
`)

	_, err := execute(t, "setup", "--skip-deps", "--config", path)
	assert.ErrorIs(t, err, domain.ErrSetupFailed)
	assert.Equal(t, 3, ExitCode(err))
}

func TestSetupCmd_BestEffortFailureTolerated(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: error
setup:
  dirs: []
  steps:
    - name: collectstatic
      command: ["false"]
      policy: best-effort
`)

	_, err := execute(t, "setup", "--skip-deps", "--config", path)
	assert.NoError(t, err)
}

// entrypointConfig launches two services that each leave a marker file behind
func entrypointConfig(t *testing.T, policy string) (path, webMarker, botMarker string) {
	t.Helper()
	dir := t.TempDir()
	webMarker = filepath.Join(dir, "web.started")
	botMarker = filepath.Join(dir, "bot.started")
	path = writeConfig(t, `
logger:
  level: error
admin:
  enabled: false
setup:
  dirs: []
  steps:
    - name: collectstatic
      command: ["false"]
      policy: `+policy+`
services:
  - name: web
    command: [touch, `+webMarker+`]
  - name: bot
    command: [touch, `+botMarker+`]
`)
	return path, webMarker, botMarker
}

func TestRootCmd_StrictSetupFailureLaunchesNothing(t *testing.T) {
	path, webMarker, botMarker := entrypointConfig(t, "strict")

	_, err := execute(t, "--config", path)
	assert.ErrorIs(t, err, domain.ErrSetupFailed)
	assert.Equal(t, 1, ExitCode(err))

	assert.NoFileExists(t, webMarker)
	assert.NoFileExists(t, botMarker)
}

func TestRootCmd_BestEffortSetupFailureStartsBothServices(t *testing.T) {
	path, webMarker, botMarker := entrypointConfig(t, "best-effort")

	_, err := execute(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))

	assert.FileExists(t, webMarker)
	assert.FileExists(t, botMarker)
}

func TestRootCmd_ServiceExitCodeIsReturned(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: error
admin:
  enabled: false
setup:
  dirs: []
  steps:
    - name: noop
      command: ["true"]
services:
  - name: web
    command: [sh, -c, "exit 4"]
  - name: bot
    command: ["true"]
`)

	_, err := execute(t, "--config", path)
	require.Error(t, err)
	assert.Equal(t, 4, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 143, ExitCode(domain.NewExitError(143, errors.New("terminated"))))
}
