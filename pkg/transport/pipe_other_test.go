//go:build !windows

package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeEndpointDialsUnixSocket(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	ln, err := net.Listen("unix", PipePath("nxtest"))
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
		close(accepted)
	}()

	d, err := NewDialer("pipe://nxtest", time.Second)
	require.NoError(t, err)
	conn, err := d.DialContext(context.Background())
	require.NoError(t, err)
	conn.Close()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never accepted")
	}
	assert.Equal(t, "unix", ln.Addr().Network())
}
