package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"task-planner-supervisor/internal/adapters/primary/http/handlers"
	"task-planner-supervisor/internal/adapters/primary/http/router"
	"task-planner-supervisor/internal/adapters/secondary/httpprobe"
	"task-planner-supervisor/internal/adapters/secondary/postgres"
	"task-planner-supervisor/internal/adapters/secondary/process"
	"task-planner-supervisor/internal/adapters/secondary/prometheus"
	"task-planner-supervisor/internal/adapters/secondary/redis"
	"task-planner-supervisor/internal/adapters/secondary/sqlite"
	"task-planner-supervisor/internal/adapters/secondary/tcp"
	"task-planner-supervisor/internal/config"
	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
	"task-planner-supervisor/internal/core/services"
)

const probeAttemptTimeout = 5 * time.Second

// app wires the adapters into the core services for one invocation
type app struct {
	cfg      *config.Config
	registry *prom.Registry
	recorder *prometheus.Recorder
	runner   ports.ProcessRunner
	fs       afero.Fs
}

func newApp(cfg *config.Config) *app {
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &app{
		cfg:      cfg,
		registry: registry,
		recorder: prometheus.NewRecorder(registry),
		runner:   process.NewRunner(),
		fs:       afero.NewOsFs(),
	}
}

// WaitDependencies blocks until the database, cache and any other configured
// dependency accept connections.
func (a *app) WaitDependencies(ctx context.Context) error {
	svc := services.NewDependencyService(a.cfg.Dependencies, a.recorder,
		postgres.NewChecker(),
		redis.NewChecker(),
		sqlite.NewChecker(),
		tcp.NewChecker(),
	)
	if err := svc.WaitAll(ctx); err != nil {
		return domain.NewExitError(1, err)
	}
	return nil
}

// RunSetup runs the one-shot steps; a strict failure carries the step's exit code.
func (a *app) RunSetup(ctx context.Context) error {
	svc := services.NewSetupService(a.runner, a.fs, a.recorder, a.cfg.Setup.Dirs, a.cfg.Setup.Steps)
	_, err := svc.Run(ctx)
	return err
}

func (a *app) newSupervisor() (*services.Supervisor, error) {
	sig, err := config.ParseSignal(a.cfg.Supervisor.StopSignal)
	if err != nil {
		return nil, err
	}
	opts := services.SupervisorOptions{
		WaitMode:     a.cfg.Supervisor.WaitMode,
		StopSignal:   sig,
		StopTimeout:  a.cfg.Supervisor.StopTimeout,
		RestartDelay: a.cfg.Supervisor.RestartDelay,
	}
	return services.NewSupervisor(a.runner, a.recorder, a.cfg.Services, opts,
		httpprobe.NewProber(probeAttemptTimeout),
		tcp.NewProber(),
	), nil
}

// Run is the container entrypoint: dependencies, setup, then the services.
// The admin server runs for the whole sequence so /healthz answers during setup.
func (a *app) Run(ctx context.Context) error {
	sup, err := a.newSupervisor()
	if err != nil {
		return err
	}
	entry := log.WithField("run_id", sup.RunID().String())

	adminCtx, stopAdmin := context.WithCancel(context.Background())
	adminDone := make(chan struct{})
	defer func() {
		stopAdmin()
		<-adminDone
	}()
	go func() {
		defer close(adminDone)
		if !a.cfg.Admin.Enabled {
			return
		}
		srv := router.NewServer(a.cfg.Admin.Addr(), router.New(handlers.New(sup), a.registry))
		if err := srv.Run(adminCtx); err != nil {
			// The services still run without the admin surface.
			entry.WithError(err).Warn("admin server failed")
		}
	}()

	if err := a.WaitDependencies(ctx); err != nil {
		return err
	}
	if err := a.RunSetup(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewExitError(1, err)
	}

	report, err := sup.Run(ctx)
	if err != nil {
		return err
	}
	for _, s := range report.Services {
		fields := log.Fields{"service": s.Name, "state": s.State, "restarts": s.Restarts}
		if s.ExitCode != nil {
			fields["exit_code"] = *s.ExitCode
		}
		entry.WithFields(fields).Info("service summary")
	}
	if report.ExitCode != 0 {
		return domain.NewExitError(report.ExitCode, fmt.Errorf("service exited with status %d", report.ExitCode))
	}
	return nil
}

// ExitCode maps an Execute error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *domain.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
