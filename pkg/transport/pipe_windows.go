//go:build windows

package transport

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

// PipePath returns the OS path of the named pipe called name.
func PipePath(name string) string {
	return `\\.\pipe\` + name
}

func dialPipe(ctx context.Context, name string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, PipePath(name))
}
