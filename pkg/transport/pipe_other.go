//go:build !windows

package transport

import (
	"context"
	"net"
	"os"
	"path/filepath"
)

// PipePath returns the Unix domain socket that stands in for the named
// pipe called name.
func PipePath(name string) string {
	return filepath.Join(os.TempDir(), "."+name)
}

func dialPipe(ctx context.Context, name string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", PipePath(name))
}
