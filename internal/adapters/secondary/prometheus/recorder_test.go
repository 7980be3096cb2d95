package prometheus

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	ports "task-planner-supervisor/internal/core/ports/output"
)

func TestRecorder_ServiceLifecycle(t *testing.T) {
	r := NewRecorder(prom.NewRegistry())

	r.ServiceStarted("web")
	assert.Equal(t, float64(1), promtestutil.ToFloat64(r.serviceUp.WithLabelValues("web")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(r.serviceStarts.WithLabelValues("web")))

	r.ServiceReady("web")
	assert.Equal(t, float64(1), promtestutil.ToFloat64(r.serviceReady.WithLabelValues("web")))

	r.ServiceExited("web", 143)
	assert.Equal(t, float64(0), promtestutil.ToFloat64(r.serviceUp.WithLabelValues("web")))
	assert.Equal(t, float64(0), promtestutil.ToFloat64(r.serviceReady.WithLabelValues("web")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(r.serviceExits.WithLabelValues("web", "143")))

	r.ServiceRestarted("web")
	assert.Equal(t, float64(1), promtestutil.ToFloat64(r.serviceRestarts.WithLabelValues("web")))
}

func TestRecorder_ObserveStep(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveStep("collectstatic", ports.OutcomeTolerated, 2*time.Second)
	r.ObserveStep("migrate", ports.OutcomeSucceeded, time.Second)

	assert.Equal(t, 2, promtestutil.CollectAndCount(r.stepDuration))
}

func TestRecorder_ObserveDependency(t *testing.T) {
	r := NewRecorder(prom.NewRegistry())

	r.ObserveDependency("database", true, time.Second)
	assert.Equal(t, float64(0), promtestutil.ToFloat64(r.dependencyFailures.WithLabelValues("database")))

	r.ObserveDependency("database", false, time.Minute)
	assert.Equal(t, float64(1), promtestutil.ToFloat64(r.dependencyFailures.WithLabelValues("database")))
}

func TestNewRecorder_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder(prom.NewRegistry())
		NewRecorder(prom.NewRegistry())
	})
}
