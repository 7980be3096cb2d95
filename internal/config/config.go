package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"task-planner-supervisor/internal/core/domain"
)

type Config struct {
	Logger       LoggerConfig         `yaml:"logger"`
	Admin        AdminConfig          `yaml:"admin"`
	Supervisor   SupervisorConfig     `yaml:"supervisor"`
	Setup        SetupConfig          `yaml:"setup"`
	Services     []domain.ServiceSpec `yaml:"services"`
	Dependencies []domain.Dependency  `yaml:"dependencies"`

	// File is the config file that was read, empty when running on defaults and env only.
	File string `yaml:"-"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Addr returns host:port for the admin listener
func (a AdminConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SupervisorConfig struct {
	WaitMode     domain.WaitMode `yaml:"wait_mode"`
	StopSignal   string          `yaml:"stop_signal"`
	StopTimeout  time.Duration   `yaml:"stop_timeout"`
	RestartDelay time.Duration   `yaml:"restart_delay"`
}

type SetupConfig struct {
	Dirs  []string           `yaml:"dirs"`
	Steps []domain.SetupStep `yaml:"steps"`
}

// Raw shapes decoded from the config file

type probeConfig struct {
	Kind     string        `mapstructure:"kind" yaml:"kind"`
	Target   string        `mapstructure:"target" yaml:"target"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

type serviceConfig struct {
	Name        string       `mapstructure:"name" yaml:"name"`
	Command     []string     `mapstructure:"command" yaml:"command"`
	Env         []string     `mapstructure:"env" yaml:"env,omitempty"`
	Dir         string       `mapstructure:"dir" yaml:"dir,omitempty"`
	Output      string       `mapstructure:"output" yaml:"output,omitempty"`
	RequiredEnv []string     `mapstructure:"required_env" yaml:"required_env,omitempty"`
	Restart     string       `mapstructure:"restart" yaml:"restart,omitempty"`
	MaxRestarts int          `mapstructure:"max_restarts" yaml:"max_restarts,omitempty"`
	Readiness   *probeConfig `mapstructure:"readiness" yaml:"readiness,omitempty"`
}

type stepConfig struct {
	Name    string        `mapstructure:"name" yaml:"name"`
	Command []string      `mapstructure:"command" yaml:"command"`
	Env     []string      `mapstructure:"env" yaml:"env,omitempty"`
	Dir     string        `mapstructure:"dir" yaml:"dir,omitempty"`
	Output  string        `mapstructure:"output" yaml:"output,omitempty"`
	Policy  string        `mapstructure:"policy" yaml:"policy"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
	Retries int           `mapstructure:"retries" yaml:"retries,omitempty"`
}

type dependencyConfig struct {
	Name    string        `mapstructure:"name" yaml:"name"`
	Kind    string        `mapstructure:"kind" yaml:"kind"`
	Target  string        `mapstructure:"target" yaml:"target"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// Load reads defaults, the optional config file and the environment.
// An empty path searches ./supervisor.yaml and /etc/supervisor/supervisor.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Env
	v.SetEnvPrefix("SUPERVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("logger.level", "SUPERVISOR_LOGGER_LEVEL", "LOGGER_LEVEL")
	_ = v.BindEnv("logger.format", "SUPERVISOR_LOGGER_FORMAT", "LOGGER_FORMAT")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_url", "REDIS_URL")

	// File
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("supervisor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/supervisor")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		File: v.ConfigFileUsed(),
		Logger: LoggerConfig{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
		},
		Admin: AdminConfig{
			Enabled: v.GetBool("admin.enabled"),
			Host:    v.GetString("admin.host"),
			Port:    v.GetInt("admin.port"),
		},
		Supervisor: SupervisorConfig{
			WaitMode:     domain.WaitMode(v.GetString("supervisor.wait_mode")),
			StopSignal:   v.GetString("supervisor.stop_signal"),
			StopTimeout:  v.GetDuration("supervisor.stop_timeout"),
			RestartDelay: v.GetDuration("supervisor.restart_delay"),
		},
		Setup: SetupConfig{
			Dirs: v.GetStringSlice("setup.dirs"),
		},
	}

	if !cfg.Supervisor.WaitMode.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidWaitMode, cfg.Supervisor.WaitMode)
	}
	if _, err := ParseSignal(cfg.Supervisor.StopSignal); err != nil {
		return nil, err
	}

	steps, err := loadSteps(v)
	if err != nil {
		return nil, err
	}
	cfg.Setup.Steps = steps

	services, err := loadServices(v)
	if err != nil {
		return nil, err
	}
	cfg.Services = services

	deps, err := loadDependencies(v)
	if err != nil {
		return nil, err
	}
	cfg.Dependencies = deps

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.host", "0.0.0.0")
	v.SetDefault("admin.port", 9090)

	v.SetDefault("supervisor.wait_mode", string(domain.WaitAll))
	v.SetDefault("supervisor.stop_signal", "SIGTERM")
	v.SetDefault("supervisor.stop_timeout", "10s")
	v.SetDefault("supervisor.restart_delay", "1s")

	v.SetDefault("setup.dirs", []string{"staticfiles", "media"})
	v.SetDefault("setup.collectstatic_policy", string(domain.PolicyBestEffort))
	v.SetDefault("setup.migrate", true)
	v.SetDefault("setup.migrate_policy", string(domain.PolicyStrict))
	v.SetDefault("setup.manage", []string{"python", "manage.py"})

	v.SetDefault("web.bind", "0.0.0.0:8080")
	v.SetDefault("web.app", "task_planner.wsgi:application")
	v.SetDefault("web.ready_timeout", "60s")
	v.SetDefault("bot.command", []string{"python", "manage.py", "runbot"})
	v.SetDefault("bot.token_env", "TELEGRAM_BOT_TOKEN")

	v.SetDefault("dependency_timeout", "60s")
}

func loadSteps(v *viper.Viper) ([]domain.SetupStep, error) {
	var raw []stepConfig
	if v.IsSet("setup.steps") {
		if err := v.UnmarshalKey("setup.steps", &raw); err != nil {
			return nil, fmt.Errorf("decode setup steps: %w", err)
		}
	} else {
		raw = defaultSteps(v)
	}

	steps := make([]domain.SetupStep, 0, len(raw))
	for _, r := range raw {
		cmd, err := toCommand(r.Name, r.Command, r.Env, r.Dir, r.Output)
		if err != nil {
			return nil, fmt.Errorf("invalid setup step %q: %w", r.Name, err)
		}
		step := domain.SetupStep{
			Name:    r.Name,
			Command: cmd,
			Policy:  domain.SetupPolicy(r.Policy),
			Timeout: r.Timeout,
			Retries: r.Retries,
		}
		if step.Policy == "" {
			step.Policy = domain.PolicyStrict
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("invalid setup step %q: %w", r.Name, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func defaultSteps(v *viper.Viper) []stepConfig {
	manage := v.GetStringSlice("setup.manage")
	steps := []stepConfig{
		{
			Name:    "collectstatic",
			Command: appendArgs(manage, "collectstatic", "--noinput"),
			Policy:  v.GetString("setup.collectstatic_policy"),
		},
	}
	if v.GetBool("setup.migrate") {
		steps = append(steps, stepConfig{
			Name:    "migrate",
			Command: appendArgs(manage, "migrate", "--noinput"),
			Policy:  v.GetString("setup.migrate_policy"),
		})
	}
	return steps
}

func loadServices(v *viper.Viper) ([]domain.ServiceSpec, error) {
	var raw []serviceConfig
	if v.IsSet("services") {
		if err := v.UnmarshalKey("services", &raw); err != nil {
			return nil, fmt.Errorf("decode services: %w", err)
		}
	} else {
		raw = defaultServices(v)
	}
	if len(raw) == 0 {
		return nil, domain.ErrNoServices
	}

	seen := make(map[string]bool, len(raw))
	specs := make([]domain.ServiceSpec, 0, len(raw))
	for _, r := range raw {
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateServiceName, r.Name)
		}
		seen[r.Name] = true

		cmd, err := toCommand(r.Name, r.Command, r.Env, r.Dir, r.Output)
		if err != nil {
			return nil, fmt.Errorf("invalid service %q: %w", r.Name, err)
		}
		spec := domain.ServiceSpec{
			Name:        r.Name,
			Command:     cmd,
			RequiredEnv: r.RequiredEnv,
			Restart:     domain.RestartPolicy(r.Restart),
			MaxRestarts: r.MaxRestarts,
		}
		if r.Readiness != nil {
			spec.Readiness = &domain.ReadinessProbe{
				Kind:     domain.ProbeKind(r.Readiness.Kind),
				Target:   r.Readiness.Target,
				Interval: r.Readiness.Interval,
				Timeout:  r.Readiness.Timeout,
			}
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid service %q: %w", r.Name, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// defaultServices is the stock container layout: the WSGI server first, then the bot.
func defaultServices(v *viper.Viper) []serviceConfig {
	bind := v.GetString("web.bind")
	web := serviceConfig{
		Name:    "web",
		Command: []string{"gunicorn", v.GetString("web.app"), "--bind", bind},
		Readiness: &probeConfig{
			Kind:    string(domain.ProbeHTTP),
			Target:  "http://" + loopback(bind) + "/",
			Timeout: v.GetDuration("web.ready_timeout"),
		},
	}
	if v.IsSet("web.command") {
		web.Command = v.GetStringSlice("web.command")
	}

	bot := serviceConfig{
		Name:    "bot",
		Command: v.GetStringSlice("bot.command"),
	}
	if token := v.GetString("bot.token_env"); token != "" {
		bot.RequiredEnv = []string{token}
	}
	return []serviceConfig{web, bot}
}

func loadDependencies(v *viper.Viper) ([]domain.Dependency, error) {
	var raw []dependencyConfig
	if v.IsSet("dependencies") {
		if err := v.UnmarshalKey("dependencies", &raw); err != nil {
			return nil, fmt.Errorf("decode dependencies: %w", err)
		}
	}

	timeout := v.GetDuration("dependency_timeout")
	deps := make([]domain.Dependency, 0, len(raw)+2)
	names := make(map[string]bool)
	for _, r := range raw {
		dep := domain.Dependency{
			Name:    r.Name,
			Kind:    domain.DependencyKind(r.Kind),
			Target:  r.Target,
			Timeout: r.Timeout,
		}
		if dep.Timeout == 0 {
			dep.Timeout = timeout
		}
		if err := dep.Validate(); err != nil {
			return nil, fmt.Errorf("invalid dependency %q: %w", r.Name, err)
		}
		names[dep.Name] = true
		deps = append(deps, dep)
	}

	inferred := []struct{ name, key string }{
		{"database", "database_url"},
		{"cache", "redis_url"},
	}
	for _, in := range inferred {
		raw := v.GetString(in.key)
		if raw == "" || names[in.name] {
			continue
		}
		dep, err := domain.DependencyFromURL(in.name, raw, timeout)
		if err != nil {
			// A DATABASE_URL the supervisor cannot check is still valid for the app.
			continue
		}
		deps = append(deps, *dep)
	}
	return deps, nil
}

// toCommand builds a command from its raw config. Env entries are KEY=VALUE
// strings because viper lowercases map keys.
func toCommand(name string, argv, env []string, dir, output string) (domain.Command, error) {
	mode := domain.OutputMode(output)
	if mode == "" {
		mode = domain.OutputInherit
	}
	cmd := domain.Command{
		Name:   name,
		Argv:   argv,
		Dir:    dir,
		Output: mode,
	}
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return cmd, fmt.Errorf("invalid env entry %q, want KEY=VALUE", kv)
		}
		if cmd.Env == nil {
			cmd.Env = make(map[string]string, len(env))
		}
		cmd.Env[key] = value
	}
	return cmd, nil
}

// ParseSignal maps a signal name such as "SIGTERM" or "term" to its value
func ParseSignal(name string) (syscall.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	switch n {
	case "SIGTERM":
		return syscall.SIGTERM, nil
	case "SIGINT":
		return syscall.SIGINT, nil
	case "SIGQUIT":
		return syscall.SIGQUIT, nil
	case "SIGHUP":
		return syscall.SIGHUP, nil
	case "SIGKILL":
		return syscall.SIGKILL, nil
	}
	return 0, fmt.Errorf("unsupported stop signal %q", name)
}

func appendArgs(base []string, args ...string) []string {
	out := make([]string, 0, len(base)+len(args))
	out = append(out, base...)
	return append(out, args...)
}

// loopback turns a wildcard bind address into one the supervisor can dial.
func loopback(bind string) string {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return bind
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
