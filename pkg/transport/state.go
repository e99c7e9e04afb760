package transport

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of a Connector.
//
//	DISCONNECTED -> CONNECTING -> CONNECTED -> (READ_ERROR | CLOSED) -> DISCONNECTED -> ...
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReadError
	StateClosed
)

var stateNames = [...]string{
	StateDisconnected: "DISCONNECTED",
	StateConnecting:   "CONNECTING",
	StateConnected:    "CONNECTED",
	StateReadError:    "READ_ERROR",
	StateClosed:       "CLOSED",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var ErrNotConnected = errors.New("transport: not connected")

// TransportError wraps a failure to open, read from, decode from or write
// to the server channel.
type TransportError struct {
	Op       string // "open", "read", "decode" or "write"
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
