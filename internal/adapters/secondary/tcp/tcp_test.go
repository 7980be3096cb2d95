package tcp

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-planner-supervisor/internal/core/domain"
)

func listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().String()
}

func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestChecker_Check(t *testing.T) {
	addr := listen(t)
	c := NewChecker()

	assert.Equal(t, domain.DependencyTCP, c.Kind())
	assert.NoError(t, c.Check(context.Background(), addr))
	assert.NoError(t, c.Check(context.Background(), "tcp://"+addr))
}

func TestChecker_Check_Refused(t *testing.T) {
	assert.Error(t, NewChecker().Check(context.Background(), closedAddr(t)))
}

func TestProber_Probe(t *testing.T) {
	addr := listen(t)
	p := NewProber()

	assert.Equal(t, domain.ProbeTCP, p.Kind())
	assert.NoError(t, p.Probe(context.Background(), addr))
	assert.Error(t, p.Probe(context.Background(), closedAddr(t)))
}
