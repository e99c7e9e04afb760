package session

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbuehrmann/netxms/internal/fakeserver"
	"github.com/fbuehrmann/netxms/pkg/logger"
	"github.com/fbuehrmann/netxms/pkg/modify"
	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/protocol"
	"github.com/fbuehrmann/netxms/pkg/transport"
)

var testTree = []fakeserver.Object{
	{ID: 1, Name: "Entire Network", Class: objects.ClassNetwork, Children: []uint64{2, 3}},
	{ID: 2, Name: "dc-east", Class: objects.ClassContainer, Parents: []uint64{1}, Children: []uint64{4}},
	{ID: 3, Name: "dc-west", Class: objects.ClassContainer, Parents: []uint64{1}},
	{ID: 4, Name: "core-sw", Class: objects.ClassNode, Parents: []uint64{2},
		CustomAttributes: map[string]string{"rack": "4"}},
}

func testTransportConfig() transport.Config {
	return transport.Config{
		ReconnectInterval: 20 * time.Millisecond,
		IdlePollInterval:  10 * time.Millisecond,
		WriteTimeout:      time.Second,
	}
}

func startSession(t *testing.T, srv *fakeserver.Server, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{
		WithLogger(logger.NewWriter(io.Discard)),
		WithTransportConfig(testTransportConfig()),
		WithDialTimeout(time.Second),
	}, opts...)
	s, err := Dial(srv.Endpoint(), opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.WaitConnected(ctx))
	return s
}

func newServer(t *testing.T, objs ...fakeserver.Object) *fakeserver.Server {
	t.Helper()
	srv, err := fakeserver.New(objs...)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ---------------------------------------------------------------------------
// Synchronization
// ---------------------------------------------------------------------------

func TestSyncObjects(t *testing.T) {
	srv := newServer(t, testTree...)
	s := startSession(t, srv)

	n, err := s.SyncObjects(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	store := s.Store()
	assert.True(t, store.IsAncestorOf(1, 4))
	assert.False(t, store.NeedsChildSync(2))

	sw, ok := store.FindByID(4)
	require.True(t, ok)
	assert.Equal(t, "core-sw", sw.Name)
	assert.Equal(t, "4", sw.CustomAttributes["rack"])
	assert.Equal(t, int64(4), s.Metrics().GetMetrics()["objects"])
}

func TestSyncChildrenOnlyWhenNeeded(t *testing.T) {
	srv := newServer(t, testTree...)
	s := startSession(t, srv)

	srv.Push(testTree[0].Message(protocol.CmdObject, 0))
	require.Eventually(t, func() bool {
		_, ok := s.Store().FindByID(1)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.Store().NeedsChildSync(1))

	sent, err := s.SyncChildren(testCtx(t), 1)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.False(t, s.Store().NeedsChildSync(1))

	for _, id := range []uint64{2, 3} {
		_, ok := s.Store().FindByID(id)
		assert.True(t, ok, "child %d", id)
	}
	_, ok := s.Store().FindByID(4)
	assert.False(t, ok, "grandchild must not be loaded")

	sent, err = s.SyncChildren(testCtx(t), 1)
	require.NoError(t, err)
	assert.False(t, sent)

	reqs := srv.Requests(protocol.CmdGetObjects)
	require.Len(t, reqs, 1)
	assert.Equal(t, uint64(1), reqs[0].GetUint64(protocol.TagObjectID))
	assert.True(t, reqs[0].GetBool(protocol.TagSyncChildren))
}

func TestPushedDeleteAndUpdate(t *testing.T) {
	srv := newServer(t, testTree...)
	s := startSession(t, srv)
	_, err := s.SyncObjects(testCtx(t))
	require.NoError(t, err)

	events := make(chan objects.Event, 8)
	cancel := s.Subscribe(func(ev objects.Event) { events <- ev })
	defer cancel()

	upd := protocol.NewMessage(protocol.CmdObjectUpdate, 0)
	upd.SetUint64(protocol.TagObjectID, 3)
	upd.SetString(protocol.TagObjectName, "dc-west-2")
	srv.Push(upd)

	del := protocol.NewMessage(protocol.CmdDeleteObject, 0)
	del.SetUint64(protocol.TagObjectID, 4)
	srv.Push(del)

	ev := <-events
	assert.Equal(t, objects.Updated, ev.Kind)
	assert.Equal(t, "dc-west-2", ev.Object.Name)
	ev = <-events
	assert.Equal(t, objects.Deleted, ev.Kind)
	assert.Equal(t, uint64(4), ev.ObjectID)

	parent, ok := s.Store().FindByID(2)
	require.True(t, ok)
	assert.False(t, parent.HasChild(4))
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

func TestModifyAppliesServerUpdateBeforeReturning(t *testing.T) {
	srv := newServer(t, testTree...)
	s := startSession(t, srv)
	_, err := s.SyncObjects(testCtx(t))
	require.NoError(t, err)

	mod := modify.New(4)
	mod.SetName("core-sw-01")
	require.NoError(t, s.Modify(testCtx(t), mod))

	o, ok := s.Store().FindByID(4)
	require.True(t, ok)
	assert.Equal(t, "core-sw-01", o.Name)

	reqs := srv.Requests(protocol.CmdModifyObject)
	require.Len(t, reqs, 1)
	assert.Equal(t, uint64(modify.FlagName), reqs[0].GetUint64(protocol.TagModifyFlags))
	assert.False(t, reqs[0].Has(protocol.TagDescription))
}

func TestModifyRejected(t *testing.T) {
	srv := newServer(t, testTree...)
	srv.SetRCC(protocol.CmdModifyObject, protocol.RCCAccessDenied)
	s := startSession(t, srv)

	mod := modify.New(4)
	mod.SetDescription("x")
	err := s.Modify(testCtx(t), mod)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, protocol.RCCAccessDenied, reqErr.Code)
	assert.Contains(t, err.Error(), "ACCESS_DENIED")
	assert.Equal(t, int64(1), s.Metrics().GetMetrics()["request_errors"])
}

func TestModifyWithoutChangesSendsNothing(t *testing.T) {
	srv := newServer(t, testTree...)
	s := startSession(t, srv)

	err := s.Modify(testCtx(t), modify.New(4))
	assert.ErrorIs(t, err, modify.ErrNothingModified)
	assert.Empty(t, srv.Requests(protocol.CmdModifyObject))
}

func TestRequestsGetDistinctIDs(t *testing.T) {
	srv := newServer(t, testTree...)
	s := startSession(t, srv)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SyncObjects(testCtx(t))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	seen := map[uint32]bool{}
	for _, r := range srv.Requests(protocol.CmdGetObjects) {
		assert.False(t, seen[r.ID], "duplicate request id %d", r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, seen, 8)
}

func TestConnectionLossFailsPendingRequest(t *testing.T) {
	srv := newServer(t, testTree...)
	s := startSession(t, srv)

	done := make(chan error, 1)
	go func() {
		// keepalives are never answered
		_, err := s.Request(testCtx(t), protocol.NewMessage(protocol.CmdKeepalive, 0))
		done <- err
	}()
	require.Eventually(t, func() bool {
		return len(srv.Requests(protocol.CmdKeepalive)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	srv.DropConnections()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrConnectionLost)
	case <-time.After(2 * time.Second):
		t.Fatal("pending request not failed after disconnect")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.WaitConnected(ctx))
}

func TestRequestHonorsContext(t *testing.T) {
	srv := newServer(t, testTree...)
	s := startSession(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := s.Request(ctx, protocol.NewMessage(protocol.CmdKeepalive, 0))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequestWithoutConnection(t *testing.T) {
	d := transport.DialerFunc(func(ctx context.Context) (net.Conn, error) {
		return nil, errors.New("refused")
	})
	s := New(d, WithLogger(logger.NewWriter(io.Discard)), WithTransportConfig(testTransportConfig()))
	_, err := s.Request(testCtx(t), protocol.NewMessage(protocol.CmdGetObjects, 0))
	assert.ErrorIs(t, err, transport.ErrNotConnected)
}

func TestCapabilityNegotiation(t *testing.T) {
	srv := newServer(t, testTree...)
	srv.SendCapsOnConnect(1024)
	s := startSession(t, srv)

	require.Eventually(t, func() bool {
		return len(srv.Requests(protocol.CmdNXCPCaps)) == 1
	}, 2*time.Second, 5*time.Millisecond)
	caps := srv.Requests(protocol.CmdNXCPCaps)[0]
	assert.Equal(t, uint32(protocol.ProtocolVersion), caps.GetUint32(protocol.TagNXCPVersion))

	mod := modify.New(4)
	mod.SetDescription(strings.Repeat("x", 2048))
	err := s.Modify(testCtx(t), mod)
	assert.ErrorIs(t, err, protocol.ErrFrameTooLarge)
}

// ---------------------------------------------------------------------------
// Object cache
// ---------------------------------------------------------------------------

type memCache struct {
	mu     sync.Mutex
	objs   []*objects.Object
	saved  int
	closed bool
}

func (c *memCache) Load(context.Context) ([]*objects.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.objs, nil
}

func (c *memCache) Save(_ context.Context, objs []*objects.Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objs = objs
	c.saved++
	return nil
}

func (c *memCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestCacheRoundTrip(t *testing.T) {
	srv := newServer(t, testTree...)
	cache := &memCache{}

	s := startSession(t, srv, WithCache(cache))
	_, err := s.SyncObjects(testCtx(t))
	require.NoError(t, err)
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, 1, cache.saved)
	assert.True(t, cache.closed)
	require.Len(t, cache.objs, 4)

	offline := New(
		transport.DialerFunc(func(context.Context) (net.Conn, error) { return nil, errors.New("offline") }),
		WithLogger(logger.NewWriter(io.Discard)),
		WithTransportConfig(testTransportConfig()),
		WithCache(cache),
	)
	require.NoError(t, offline.Start(context.Background()))
	defer offline.Stop(context.Background())

	assert.Equal(t, 4, offline.Store().Len())
	assert.True(t, offline.Store().IsAncestorOf(1, 4))
	assert.Equal(t, objects.SyncUnknown, offline.Store().ChildSyncState(2))
}
