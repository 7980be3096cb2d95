package prometheus

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	ports "task-planner-supervisor/internal/core/ports/output"
)

// Recorder exports supervisor lifecycle events as Prometheus metrics
type Recorder struct {
	stepDuration       *prom.HistogramVec
	serviceUp          *prom.GaugeVec
	serviceReady       *prom.GaugeVec
	serviceStarts      *prom.CounterVec
	serviceExits       *prom.CounterVec
	serviceRestarts    *prom.CounterVec
	dependencyWait     *prom.HistogramVec
	dependencyFailures *prom.CounterVec
}

var _ ports.MetricsRecorder = (*Recorder)(nil)

// NewRecorder creates and registers all metrics on reg
func NewRecorder(reg prom.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		stepDuration: factory.NewHistogramVec(prom.HistogramOpts{
			Name:    "supervisor_setup_step_duration_seconds",
			Help:    "Duration of setup steps by outcome",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"step", "outcome"}),
		serviceUp: factory.NewGaugeVec(prom.GaugeOpts{
			Name: "supervisor_service_up",
			Help: "Whether a process is currently running for the service",
		}, []string{"service"}),
		serviceReady: factory.NewGaugeVec(prom.GaugeOpts{
			Name: "supervisor_service_ready",
			Help: "Whether the service passed its readiness probe",
		}, []string{"service"}),
		serviceStarts: factory.NewCounterVec(prom.CounterOpts{
			Name: "supervisor_service_starts_total",
			Help: "Total number of process launches per service",
		}, []string{"service"}),
		serviceExits: factory.NewCounterVec(prom.CounterOpts{
			Name: "supervisor_service_exits_total",
			Help: "Total number of process exits per service and exit code",
		}, []string{"service", "code"}),
		serviceRestarts: factory.NewCounterVec(prom.CounterOpts{
			Name: "supervisor_service_restarts_total",
			Help: "Total number of restarts per service",
		}, []string{"service"}),
		dependencyWait: factory.NewHistogramVec(prom.HistogramOpts{
			Name:    "supervisor_dependency_wait_seconds",
			Help:    "Time spent waiting for a dependency",
			Buckets: prom.DefBuckets,
		}, []string{"dependency"}),
		dependencyFailures: factory.NewCounterVec(prom.CounterOpts{
			Name: "supervisor_dependency_failures_total",
			Help: "Total number of dependencies that never became available",
		}, []string{"dependency"}),
	}
}

func (r *Recorder) ObserveStep(step string, outcome string, d time.Duration) {
	r.stepDuration.WithLabelValues(step, outcome).Observe(d.Seconds())
}

func (r *Recorder) ServiceStarted(service string) {
	r.serviceStarts.WithLabelValues(service).Inc()
	r.serviceUp.WithLabelValues(service).Set(1)
	r.serviceReady.WithLabelValues(service).Set(0)
}

func (r *Recorder) ServiceExited(service string, exitCode int) {
	r.serviceExits.WithLabelValues(service, strconv.Itoa(exitCode)).Inc()
	r.serviceUp.WithLabelValues(service).Set(0)
	r.serviceReady.WithLabelValues(service).Set(0)
}

func (r *Recorder) ServiceReady(service string) {
	r.serviceReady.WithLabelValues(service).Set(1)
}

func (r *Recorder) ServiceRestarted(service string) {
	r.serviceRestarts.WithLabelValues(service).Inc()
}

func (r *Recorder) ObserveDependency(name string, ok bool, d time.Duration) {
	r.dependencyWait.WithLabelValues(name).Observe(d.Seconds())
	if !ok {
		r.dependencyFailures.WithLabelValues(name).Inc()
	}
}
