package tcp

import (
	"context"
	"fmt"
	"net"

	"task-planner-supervisor/internal/core/domain"
	ports "task-planner-supervisor/internal/core/ports/output"
)

func dial(ctx context.Context, target string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", domain.TCPAddress(target))
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	return conn.Close()
}

type checker struct{}

// NewChecker creates a DependencyChecker that only needs a TCP accept
func NewChecker() ports.DependencyChecker {
	return &checker{}
}

func (c *checker) Kind() domain.DependencyKind {
	return domain.DependencyTCP
}

func (c *checker) Check(ctx context.Context, target string) error {
	return dial(ctx, target)
}

type prober struct{}

// NewProber creates a ReadinessProber that succeeds once the port accepts connections
func NewProber() ports.ReadinessProber {
	return &prober{}
}

func (p *prober) Kind() domain.ProbeKind {
	return domain.ProbeTCP
}

func (p *prober) Probe(ctx context.Context, target string) error {
	return dial(ctx, target)
}
