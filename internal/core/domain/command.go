package domain

import (
	"os"
	"strings"
)

// OutputMode decides where a child's stdout/stderr goes
type OutputMode string

const (
	// OutputInherit passes the child's streams straight through to the supervisor's own.
	OutputInherit OutputMode = "inherit"
	// OutputLog pipes every line through the structured logger.
	OutputLog OutputMode = "log"
)

// IsValid checks if the output mode is valid
func (m OutputMode) IsValid() bool {
	return m == OutputInherit || m == OutputLog
}

// Command describes one program invocation
type Command struct {
	Name   string            `json:"name" yaml:"name"`
	Argv   []string          `json:"argv" yaml:"argv"`
	Env    map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Dir    string            `json:"dir,omitempty" yaml:"dir,omitempty"`
	Output OutputMode        `json:"output" yaml:"output"`
}

// Validate checks the command can be started
func (c Command) Validate() error {
	if len(c.Argv) == 0 || strings.TrimSpace(c.Argv[0]) == "" {
		return ErrEmptyCommand
	}
	if c.Output != "" && !c.Output.IsValid() {
		return ErrInvalidOutputMode
	}
	return nil
}

// Program returns the executable
func (c Command) Program() string {
	return c.Argv[0]
}

// Args returns the arguments after the executable
func (c Command) Args() []string {
	return c.Argv[1:]
}

// String renders the command line for logs
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Environ merges the command's extra variables over base.
// Later entries win, matching os/exec semantics for duplicate keys.
func (c Command) Environ(base []string) []string {
	env := make([]string, 0, len(base)+len(c.Env))
	env = append(env, base...)
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// LookupEnv resolves key from the command's extra variables first, then the process environment.
func (c Command) LookupEnv(key string) (string, bool) {
	if v, ok := c.Env[key]; ok {
		return v, true
	}
	return os.LookupEnv(key)
}
