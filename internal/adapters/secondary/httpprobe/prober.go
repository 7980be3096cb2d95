package httpprobe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

type prober struct {
	client *http.Client
}

// NewProber creates a ReadinessProber that treats any non-5xx answer as serving.
// Redirects are not followed: a 302 to a login page still proves the server is up.
func NewProber(timeout time.Duration) ports.ReadinessProber {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &prober{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *prober) Kind() domain.ProbeKind {
	return domain.ProbeHTTP
}

func (p *prober) Probe(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
