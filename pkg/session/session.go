// Package session ties the transport, the codec and the object store into
// a client session: it routes incoming messages to the store, correlates
// requests with their replies and persists the object cache across runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fbuehrmann/netxms/pkg/logger"
	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/observability"
	"github.com/fbuehrmann/netxms/pkg/protocol"
	"github.com/fbuehrmann/netxms/pkg/transport"
)

// Cache persists the object store between sessions.
type Cache interface {
	Load(ctx context.Context) ([]*objects.Object, error)
	Save(ctx context.Context, objs []*objects.Object) error
	Close() error
}

// Option configures a Session.
type Option func(*Session)

func WithStore(s *objects.Store) Option {
	return func(sess *Session) { sess.store = s }
}

func WithLogger(l *logger.Logger) Option {
	return func(sess *Session) { sess.Logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(sess *Session) { sess.metrics = m }
}

func WithTransportConfig(cfg transport.Config) Option {
	return func(sess *Session) { sess.tcfg = cfg }
}

func WithCodec(c protocol.Codec) Option {
	return func(sess *Session) { sess.codec = c }
}

// WithCache restores the store from c on Start and saves it on Stop.
func WithCache(c Cache) Option {
	return func(sess *Session) { sess.cache = c }
}

// WithDialTimeout bounds each connection attempt made by Dial.
func WithDialTimeout(d time.Duration) Option {
	return func(sess *Session) { sess.dialTimeout = d }
}

// WithStateHandler observes connector state transitions.
func WithStateHandler(fn transport.StateHandler) Option {
	return func(sess *Session) { sess.onState = fn }
}

// Session is a client connection to one server.
type Session struct {
	*logger.Logger

	store       *objects.Store
	conn        *transport.Connector
	codec       protocol.Codec
	cache       Cache
	metrics     *observability.Metrics
	tcfg        transport.Config
	dialTimeout time.Duration
	onState     transport.StateHandler

	nextID atomic.Uint32

	mu      sync.Mutex
	pending map[uint32]chan *protocol.Message

	upMu sync.Mutex
	up   chan struct{} // closed while connected

	stopOnce sync.Once
	stopErr  error
}

// Dial returns a stopped Session for endpoint (tcp://host[:port],
// unix:///path or pipe://name).
func Dial(endpoint string, opts ...Option) (*Session, error) {
	probe := &Session{}
	for _, opt := range opts {
		opt(probe)
	}
	d, err := transport.NewDialer(endpoint, probe.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return New(d, opts...), nil
}

// New returns a stopped Session that connects through dialer.
func New(dialer transport.Dialer, opts ...Option) *Session {
	s := &Session{
		codec:   protocol.DefaultCodec(),
		tcfg:    transport.DefaultConfig(),
		pending: make(map[uint32]chan *protocol.Message),
		up:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logger.New()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	if s.store == nil {
		s.store = objects.NewStore(objects.WithLogger(s.Logger), objects.WithMetrics(s.metrics))
	}
	s.conn = transport.New(dialer, transport.HandlerFunc(s.handleMessage),
		transport.WithConfig(s.tcfg),
		transport.WithCodec(s.codec),
		transport.WithLogger(s.Logger),
		transport.WithMetrics(s.metrics),
		transport.WithStateHandler(s.stateChanged),
	)
	s.Logger = s.With("component", "session")
	return s
}

// Store returns the object store fed by this session.
func (s *Session) Store() *objects.Store { return s.store }

// Metrics returns the session counters.
func (s *Session) Metrics() *observability.Metrics { return s.metrics }

// State returns the connector state.
func (s *Session) State() transport.State { return s.conn.State() }

// Start restores the object cache, if one is configured, and starts
// connecting. A cache that cannot be read is logged and skipped.
func (s *Session) Start(ctx context.Context) error {
	if s.cache != nil {
		objs, err := s.cache.Load(ctx)
		if err != nil {
			s.Warningf("object cache not restored: %v", err)
		} else {
			n := s.store.Restore(objs)
			s.Infof("restored %d objects from cache", n)
		}
	}
	s.conn.Start()
	return nil
}

// Stop disconnects, fails outstanding requests and saves the object cache.
// It is safe to call more than once.
func (s *Session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.conn.Stop()
		s.failPending()
		if s.cache == nil {
			return
		}
		if err := s.cache.Save(ctx, s.store.Objects()); err != nil {
			s.stopErr = fmt.Errorf("session: save object cache: %w", err)
		}
		if err := s.cache.Close(); err != nil && s.stopErr == nil {
			s.stopErr = fmt.Errorf("session: close object cache: %w", err)
		}
	})
	return s.stopErr
}

// WaitConnected blocks until the channel is open or ctx is done.
func (s *Session) WaitConnected(ctx context.Context) error {
	for {
		s.upMu.Lock()
		up := s.up
		s.upMu.Unlock()
		select {
		case <-up:
			if s.State() == transport.StateConnected {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Subscribe registers fn for store change events.
func (s *Session) Subscribe(fn func(objects.Event)) (cancel func()) {
	return s.store.Subscribe(fn)
}

func (s *Session) stateChanged(st transport.State, err error) {
	s.upMu.Lock()
	select {
	case <-s.up:
		if st != transport.StateConnected {
			s.up = make(chan struct{})
		}
	default:
		if st == transport.StateConnected {
			close(s.up)
		}
	}
	s.upMu.Unlock()

	if st == transport.StateDisconnected {
		s.failPending()
	}
	if s.onState != nil {
		s.onState(st, err)
	}
}

// handleMessage runs on the read loop, in wire order.
func (s *Session) handleMessage(m *protocol.Message) {
	switch m.Code {
	case protocol.CmdObject:
		if _, err := s.store.ApplyFullObject(m); err != nil {
			s.Warningf("object message rejected: %v", err)
		}
	case protocol.CmdObjectUpdate:
		if _, err := s.store.ApplyUpdate(m); err != nil {
			if errors.Is(err, objects.ErrObjectNotFound) {
				s.Debugf("update for object %d that is not loaded", m.GetUint64(protocol.TagObjectID))
			} else {
				s.Warningf("object update rejected: %v", err)
			}
		}
	case protocol.CmdDeleteObject:
		s.store.ApplyDelete(m.GetUint64(protocol.TagObjectID))
	case protocol.CmdGetNXCPCaps:
		if err := s.conn.Send(s.codec.CapsReply(m)); err != nil {
			s.Warningf("capability reply not sent: %v", err)
		}
		if m.Has(protocol.TagMaxFrameSize) || m.Has(protocol.TagCompressionSupported) {
			s.conn.SetEncoder(s.codec.Negotiate(m))
		}
	case protocol.CmdNXCPCaps:
		s.conn.SetEncoder(s.codec.Negotiate(m))
		s.resolve(m)
	case protocol.CmdKeepalive:
	default:
		if !s.resolve(m) {
			s.Debugf("ignoring %s", m)
		}
	}
}
