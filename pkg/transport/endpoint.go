// Package transport maintains the byte channel to the management server:
// endpoint parsing, dialing, and the reconnecting Connector that turns the
// byte stream into decoded messages.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// DefaultPort is the server's client-protocol port, used when a TCP
// endpoint omits one.
const DefaultPort = "4701"

var ErrEmptyEndpoint = errors.New("transport: empty endpoint")

// Endpoint names a server channel: a TCP address, a Unix domain socket
// path, or a local named pipe.
type Endpoint struct {
	Network string // "tcp", "unix" or "pipe"
	Address string
}

// ParseEndpoint accepts tcp://host[:port], host:port, unix:///path, /path
// and pipe://name.
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Endpoint{}, ErrEmptyEndpoint
	case strings.HasPrefix(s, "pipe://"):
		name := strings.TrimPrefix(s, "pipe://")
		if name == "" || strings.ContainsAny(name, `/\`) {
			return Endpoint{}, fmt.Errorf("transport: invalid pipe name %q", name)
		}
		return Endpoint{Network: "pipe", Address: name}, nil
	case strings.HasPrefix(s, "unix://"), strings.HasPrefix(s, "/"):
		path := strings.TrimPrefix(s, "unix://")
		if path == "" {
			return Endpoint{}, fmt.Errorf("transport: invalid socket path in %q", s)
		}
		return Endpoint{Network: "unix", Address: path}, nil
	}

	addr := strings.TrimPrefix(s, "tcp://")
	if strings.Contains(addr, "://") {
		return Endpoint{}, fmt.Errorf("transport: unsupported scheme in %q", s)
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// no port given
		host, port = strings.Trim(addr, "[]"), DefaultPort
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("transport: missing host in %q", s)
	}
	return Endpoint{Network: "tcp", Address: net.JoinHostPort(host, port)}, nil
}

func (e Endpoint) String() string {
	return e.Network + "://" + e.Address
}

// Dialer opens a new byte channel to the server.
type Dialer interface {
	DialContext(ctx context.Context) (net.Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (net.Conn, error)

func (f DialerFunc) DialContext(ctx context.Context) (net.Conn, error) {
	return f(ctx)
}

// NetDialer dials an Endpoint.
type NetDialer struct {
	Endpoint Endpoint
	Timeout  time.Duration
}

// NewDialer parses endpoint and returns a dialer for it.
func NewDialer(endpoint string, timeout time.Duration) (*NetDialer, error) {
	ep, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &NetDialer{Endpoint: ep, Timeout: timeout}, nil
}

func (d *NetDialer) DialContext(ctx context.Context) (net.Conn, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	switch d.Endpoint.Network {
	case "pipe":
		return dialPipe(ctx, d.Endpoint.Address)
	case "tcp", "unix":
		var nd net.Dialer
		return nd.DialContext(ctx, d.Endpoint.Network, d.Endpoint.Address)
	}
	return nil, fmt.Errorf("transport: unsupported network %q", d.Endpoint.Network)
}

func (d *NetDialer) String() string {
	return d.Endpoint.String()
}
