package config

import (
	"net/url"
	"sort"
)

// Document is the config file layout read by Load. Rendering a Config as a
// Document gives YAML that Load accepts unchanged.
type Document struct {
	Logger       LoggerConfig       `yaml:"logger"`
	Admin        AdminConfig        `yaml:"admin"`
	Supervisor   SupervisorConfig   `yaml:"supervisor"`
	Setup        setupDocument      `yaml:"setup"`
	Services     []serviceConfig    `yaml:"services"`
	Dependencies []dependencyConfig `yaml:"dependencies,omitempty"`
}

type setupDocument struct {
	Dirs  []string     `yaml:"dirs"`
	Steps []stepConfig `yaml:"steps"`
}

// Document renders the effective configuration in file form.
// Passwords in dependency targets are masked.
func (c *Config) Document() Document {
	doc := Document{
		Logger:     c.Logger,
		Admin:      c.Admin,
		Supervisor: c.Supervisor,
		Setup: setupDocument{
			Dirs:  append([]string{}, c.Setup.Dirs...),
			Steps: make([]stepConfig, 0, len(c.Setup.Steps)),
		},
		Services: make([]serviceConfig, 0, len(c.Services)),
	}

	for _, step := range c.Setup.Steps {
		doc.Setup.Steps = append(doc.Setup.Steps, stepConfig{
			Name:    step.Name,
			Command: step.Command.Argv,
			Env:     envList(step.Command.Env),
			Dir:     step.Command.Dir,
			Output:  string(step.Command.Output),
			Policy:  string(step.Policy),
			Timeout: step.Timeout,
			Retries: step.Retries,
		})
	}

	for _, spec := range c.Services {
		svc := serviceConfig{
			Name:        spec.Name,
			Command:     spec.Command.Argv,
			Env:         envList(spec.Command.Env),
			Dir:         spec.Command.Dir,
			Output:      string(spec.Command.Output),
			RequiredEnv: spec.RequiredEnv,
			Restart:     string(spec.Restart),
			MaxRestarts: spec.MaxRestarts,
		}
		if p := spec.Readiness; p != nil {
			svc.Readiness = &probeConfig{
				Kind:     string(p.Kind),
				Target:   p.Target,
				Interval: p.Interval,
				Timeout:  p.Timeout,
			}
		}
		doc.Services = append(doc.Services, svc)
	}

	for _, dep := range c.Dependencies {
		doc.Dependencies = append(doc.Dependencies, dependencyConfig{
			Name:    dep.Name,
			Kind:    string(dep.Kind),
			Target:  redact(dep.Target),
			Timeout: dep.Timeout,
		})
	}
	return doc
}

// envList renders env as sorted KEY=VALUE entries
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// redact masks the password of a URL target. Targets that are not URLs with
// credentials come back unchanged.
func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.User == nil {
		return target
	}
	return u.Redacted()
}
