package router

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-planner-supervisor/internal/adapters/primary/http/handlers"
	"task-planner-supervisor/internal/adapters/secondary/prometheus"
	"task-planner-supervisor/internal/core/domain"
	"task-planner-supervisor/internal/core/services"
	"task-planner-supervisor/internal/testutil"
)

func newTestRouter() (*services.Supervisor, *prometheus.Recorder, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	reg := prom.NewRegistry()
	recorder := prometheus.NewRecorder(reg)
	specs := []domain.ServiceSpec{{Name: "web", Command: domain.Command{Name: "web", Argv: []string{"gunicorn"}}}}
	sup := services.NewSupervisor(new(testutil.MockProcessRunner), recorder, specs, services.SupervisorOptions{})
	return sup, recorder, New(handlers.New(sup), reg)
}

func TestRouter_Routes(t *testing.T) {
	_, recorder, r := newTestRouter()
	recorder.ServiceStarted("web")

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/healthz", http.StatusOK, `"ok"`},
		{"/readyz", http.StatusServiceUnavailable, `"not ready"`},
		{"/api/v1/services", http.StatusOK, `"web"`},
		{"/api/v1/services/web", http.StatusOK, `"PENDING"`},
		{"/metrics", http.StatusOK, `supervisor_service_up{service="web"} 1`},
		{"/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_NoMetricsWithoutGatherer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	specs := []domain.ServiceSpec{{Name: "web", Command: domain.Command{Name: "web", Argv: []string{"gunicorn"}}}}
	sup := services.NewSupervisor(new(testutil.MockProcessRunner), nil, specs, services.SupervisorOptions{})
	r := New(handlers.New(sup), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	_, _, r := newTestRouter()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- NewServer(ln.Addr().String(), r).Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = NewServer(ln.Addr().String(), http.NotFoundHandler()).Run(context.Background())
	assert.Error(t, err)
}
