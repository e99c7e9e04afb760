package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/fbuehrmann/netxms/pkg/logger"
	"github.com/fbuehrmann/netxms/pkg/observability"
	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// Config holds the Connector tunables.
type Config struct {
	ReadBufferSize    int
	ReconnectInterval time.Duration
	IdlePollInterval  time.Duration
	WriteTimeout      time.Duration
}

// DefaultConfig returns 8 KiB reads, a 1 s reconnect backoff, a 100 ms
// idle poll and a 10 s write timeout.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:    8192,
		ReconnectInterval: time.Second,
		IdlePollInterval:  100 * time.Millisecond,
		WriteTimeout:      10 * time.Second,
	}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = def.ReadBufferSize
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = def.ReconnectInterval
	}
	if cfg.IdlePollInterval <= 0 {
		cfg.IdlePollInterval = def.IdlePollInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	return cfg
}

// Handler consumes decoded messages. It is called from the read loop, one
// message at a time, in wire order.
type Handler interface {
	HandleMessage(m *protocol.Message)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(m *protocol.Message)

func (f HandlerFunc) HandleMessage(m *protocol.Message) { f(m) }

// StateHandler observes state transitions. err is the failure that caused
// the transition, if any.
type StateHandler func(s State, err error)

// Option configures a Connector.
type Option func(*Connector)

func WithConfig(cfg Config) Option {
	return func(c *Connector) { c.cfg = cfg }
}

// WithCodec sets the codec for both directions.
func WithCodec(codec protocol.Codec) Option {
	return func(c *Connector) {
		c.codec = codec
		c.encoder.Store(&codec)
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Connector) { c.Logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Connector) { c.metrics = m }
}

func WithStateHandler(fn StateHandler) Option {
	return func(c *Connector) { c.onState = fn }
}

// channel is one open connection. close is idempotent.
type channel struct {
	conn   net.Conn
	once   sync.Once
	closed atomic.Bool
}

func (ch *channel) close() {
	ch.once.Do(func() {
		ch.closed.Store(true)
		_ = ch.conn.Close()
	})
}

// Connector keeps a channel to the server open, reconnecting with a fixed
// backoff, and delivers every decoded message to its Handler. Send may be
// called from any goroutine.
type Connector struct {
	*logger.Logger

	dialer  Dialer
	handler Handler
	cfg     Config
	codec   protocol.Codec
	encoder atomic.Pointer[protocol.Codec]
	metrics *observability.Metrics
	onState StateHandler

	state atomic.Int32

	ch      atomic.Pointer[channel]
	writeMu sync.Mutex // serializes frame writes; never taken by the read loop

	ctx       context.Context
	cancel    context.CancelFunc
	shutdown  atomic.Bool
	startOnce sync.Once
	wg        conc.WaitGroup
}

// New returns a stopped Connector. Call Start to begin connecting.
func New(dialer Dialer, handler Handler, opts ...Option) *Connector {
	c := &Connector{
		dialer:  dialer,
		handler: handler,
		cfg:     DefaultConfig(),
		codec:   protocol.DefaultCodec(),
	}
	c.encoder.Store(&c.codec)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(c)
	}
	c.cfg = c.cfg.withDefaults()
	if c.Logger == nil {
		c.Logger = logger.New()
	}
	c.Logger = c.With("component", "connector", "endpoint", c.endpoint())
	if c.metrics == nil {
		c.metrics = observability.NewMetrics()
	}
	return c
}

func (c *Connector) endpoint() string {
	if s, ok := c.dialer.(fmt.Stringer); ok {
		return s.String()
	}
	return "custom"
}

// State returns the current lifecycle state.
func (c *Connector) State() State {
	return State(c.state.Load())
}

// Metrics returns the counters the Connector updates.
func (c *Connector) Metrics() *observability.Metrics {
	return c.metrics
}

// SetEncoder replaces the codec used for outgoing frames, e.g. after
// capability negotiation. Incoming frames keep the configured limits.
func (c *Connector) SetEncoder(codec protocol.Codec) {
	c.encoder.Store(&codec)
}

// Start launches the read loop. Calling it more than once has no effect.
func (c *Connector) Start() {
	c.startOnce.Do(func() {
		c.wg.Go(c.run)
	})
}

// Stop requests shutdown and waits for the read loop to exit. The channel,
// if open, is closed exactly once. The frame being applied when Stop is
// called is applied completely.
func (c *Connector) Stop() {
	c.shutdown.Store(true)
	c.cancel()
	c.wg.Wait()
}

// Send encodes m and writes it to the open channel. A write failure closes
// the channel; the read loop observes the close and reconnects.
func (c *Connector) Send(m *protocol.Message) error {
	frame, err := c.encoder.Load().Encode(m)
	if err != nil {
		return err
	}

	ch := c.ch.Load()
	if ch == nil || ch.closed.Load() {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ch.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if _, err := ch.conn.Write(frame); err != nil {
		c.metrics.IncSendFailure()
		c.Warningf("send %s failed, closing channel: %v", protocol.CommandName(m.Code), err)
		ch.close()
		return &TransportError{Op: "write", Endpoint: c.endpoint(), Err: err}
	}
	c.metrics.IncFrameOut(len(frame))
	return nil
}

func (c *Connector) run() {
	buf := make([]byte, c.cfg.ReadBufferSize)
	dec := protocol.NewDecoder(c.codec)

	for !c.shutdown.Load() {
		ch := c.current()
		if ch == nil {
			if !c.connect(dec) {
				c.sleep(c.cfg.ReconnectInterval)
			}
			continue
		}
		c.readOnce(ch, buf, dec)
	}

	if ch := c.current(); ch != nil {
		c.drop(ch, StateDisconnected, nil)
	}
	c.Debug("read loop stopped")
}

func (c *Connector) current() *channel {
	return c.ch.Load()
}

func (c *Connector) connect(dec *protocol.Decoder) bool {
	c.setState(StateConnecting, nil)
	conn, err := c.dialer.DialContext(c.ctx)
	if err != nil {
		if c.shutdown.Load() {
			c.setState(StateDisconnected, nil)
			return true
		}
		c.metrics.IncConnectFailure()
		c.Warningf("connect failed, retrying in %s: %v", c.cfg.ReconnectInterval, err)
		c.setState(StateDisconnected, &TransportError{Op: "open", Endpoint: c.endpoint(), Err: err})
		return false
	}

	dec.Reset()
	c.ch.Store(&channel{conn: conn})

	c.metrics.IncConnect()
	c.metrics.SetConnected(true)
	c.Infof("connected")
	c.setState(StateConnected, nil)
	return true
}

func (c *Connector) readOnce(ch *channel, buf []byte, dec *protocol.Decoder) {
	_ = ch.conn.SetReadDeadline(time.Now().Add(c.cfg.IdlePollInterval))
	n, err := ch.conn.Read(buf)
	if n > 0 {
		c.metrics.AddBytesIn(n)
		dec.Feed(buf[:n])
		for !c.shutdown.Load() {
			m, derr := dec.Next()
			if derr != nil {
				c.metrics.IncDecodeError()
				c.Errorf("dropping channel: %v", derr)
				c.drop(ch, StateReadError, &TransportError{Op: "decode", Endpoint: c.endpoint(), Err: derr})
				return
			}
			if m == nil {
				break
			}
			c.metrics.IncFrameIn()
			c.deliver(m)
		}
	}

	switch {
	case err == nil:
		if n == 0 {
			c.sleep(c.cfg.IdlePollInterval)
		}
	case errors.Is(err, os.ErrDeadlineExceeded):
		// nothing ready
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		if !c.shutdown.Load() {
			c.Infof("channel closed: %v", err)
		}
		c.drop(ch, StateClosed, err)
	default:
		c.Warningf("read failed: %v", err)
		c.drop(ch, StateReadError, &TransportError{Op: "read", Endpoint: c.endpoint(), Err: err})
	}
}

func (c *Connector) deliver(m *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.Errorf("handler panic on %s: %v", m, r)
		}
	}()
	c.handler.HandleMessage(m)
}

// drop closes ch and moves through st back to DISCONNECTED.
func (c *Connector) drop(ch *channel, st State, err error) {
	ch.close()
	c.ch.CompareAndSwap(ch, nil)
	c.metrics.SetConnected(false)
	if st != StateDisconnected {
		c.setState(st, err)
	}
	c.setState(StateDisconnected, err)
}

func (c *Connector) setState(s State, err error) {
	prev := State(c.state.Swap(int32(s)))
	if prev == s {
		return
	}
	c.Debugf("state %s -> %s", prev, s)
	if c.onState != nil {
		c.onState(s, err)
	}
}

func (c *Connector) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-c.ctx.Done():
	}
}
