// Package observability provides lightweight internal metrics counters for
// the client runtime.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

const latencyWindow = 1024

// Metrics holds simple atomic counters for transport, codec and store
// activity.
type Metrics struct {
	framesIn            atomic.Int64
	framesOut           atomic.Int64
	bytesIn             atomic.Int64
	bytesOut            atomic.Int64
	decodeErrors        atomic.Int64
	connects            atomic.Int64
	connectFailures     atomic.Int64
	sendFailures        atomic.Int64
	consistencyWarnings atomic.Int64
	requestErrors       atomic.Int64
	objects             atomic.Int64
	connected           atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	next      int
}

// NewMetrics returns a zero-initialised Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) AddBytesIn(n int)       { m.bytesIn.Add(int64(n)) }
func (m *Metrics) IncFrameIn()            { m.framesIn.Add(1) }
func (m *Metrics) IncFrameOut(size int)   { m.framesOut.Add(1); m.bytesOut.Add(int64(size)) }
func (m *Metrics) IncDecodeError()        { m.decodeErrors.Add(1) }
func (m *Metrics) IncConnect()            { m.connects.Add(1) }
func (m *Metrics) IncConnectFailure()     { m.connectFailures.Add(1) }
func (m *Metrics) IncSendFailure()        { m.sendFailures.Add(1) }
func (m *Metrics) IncConsistencyWarning() { m.consistencyWarnings.Add(1) }
func (m *Metrics) IncRequestError()       { m.requestErrors.Add(1) }
func (m *Metrics) SetObjects(n int)       { m.objects.Store(int64(n)) }

func (m *Metrics) SetConnected(up bool) {
	if up {
		m.connected.Store(1)
	} else {
		m.connected.Store(0)
	}
}

// ObserveLatency records one request round trip in a fixed-size rolling
// window.
func (m *Metrics) ObserveLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) < latencyWindow {
		m.latencies = append(m.latencies, d)
		return
	}
	m.latencies[m.next] = d
	m.next = (m.next + 1) % latencyWindow
}

// LatencySnapshot returns a copy of the rolling latency window.
func (m *Metrics) LatencySnapshot() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.latencies...)
}

// GetMetrics returns a snapshot of the counters.
func (m *Metrics) GetMetrics() map[string]int64 {
	return map[string]int64{
		"frames_in":            m.framesIn.Load(),
		"frames_out":           m.framesOut.Load(),
		"bytes_in":             m.bytesIn.Load(),
		"bytes_out":            m.bytesOut.Load(),
		"decode_errors":        m.decodeErrors.Load(),
		"connects":             m.connects.Load(),
		"connect_failures":     m.connectFailures.Load(),
		"send_failures":        m.sendFailures.Load(),
		"consistency_warnings": m.consistencyWarnings.Load(),
		"request_errors":       m.requestErrors.Load(),
		"objects":              m.objects.Load(),
		"connected":            m.connected.Load(),
	}
}
