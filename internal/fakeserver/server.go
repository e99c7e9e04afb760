package fakeserver

import (
	"fmt"
	"maps"
	"net"
	"slices"
	"sync"

	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// Server is a minimal NXCP peer listening on a loopback TCP port.
type Server struct {
	ln    net.Listener
	codec protocol.Codec

	mu       sync.Mutex
	objects  map[uint64]*Object
	conns    map[net.Conn]struct{}
	requests []*protocol.Message
	rcc      map[uint16]int32
	caps     *protocol.Message
	closed   bool

	wmu sync.Mutex // serializes frame writes
	wg  sync.WaitGroup
}

// New starts a server that serves objs.
func New(objs ...Object) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("fakeserver: listen: %w", err)
	}
	s := &Server{
		ln:      ln,
		codec:   protocol.DefaultCodec(),
		objects: make(map[uint64]*Object, len(objs)),
		conns:   make(map[net.Conn]struct{}),
		rcc:     make(map[uint16]int32),
	}
	for _, o := range objs {
		s.objects[o.ID] = &o
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Endpoint returns the tcp:// endpoint of the server.
func (s *Server) Endpoint() string {
	return "tcp://" + s.ln.Addr().String()
}

// SetRCC makes every request with the given command code fail with rcc.
func (s *Server) SetRCC(code uint16, rcc int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rcc[code] = rcc
}

// SendCapsOnConnect makes the server open every connection with a
// CMD_GET_NXCP_CAPS request carrying its own capabilities.
func (s *Server) SendCapsOnConnect(maxFrameSize uint32) {
	m := protocol.NewMessage(protocol.CmdGetNXCPCaps, 0)
	m.SetUint32(protocol.TagNXCPVersion, protocol.ProtocolVersion)
	m.SetUint32(protocol.TagMaxFrameSize, maxFrameSize)
	m.SetBool(protocol.TagCompressionSupported, false)
	s.mu.Lock()
	s.caps = m
	s.mu.Unlock()
}

// Object returns a copy of the server-side object id.
func (s *Server) Object(id uint64) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[id]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Requests returns the received messages with the given command code.
func (s *Server) Requests(code uint16) []*protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*protocol.Message
	for _, m := range s.requests {
		if m.Code == code {
			out = append(out, m)
		}
	}
	return out
}

// Connections returns the number of open client connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Push sends m to every connected client.
func (s *Server) Push(m *protocol.Message) {
	for _, conn := range s.snapshotConns() {
		_ = s.write(conn, m)
	}
}

// DropConnections closes every client connection; the listener stays up.
func (s *Server) DropConnections() {
	for _, conn := range s.snapshotConns() {
		_ = conn.Close()
	}
}

// Close stops the listener, closes all connections and waits for the
// serving goroutines.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.ln.Close()
	s.DropConnections()
	s.wg.Wait()
}

func (s *Server) snapshotConns() []net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Keys(s.conns))
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		caps := s.caps
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn, caps)
	}
}

func (s *Server) serve(conn net.Conn, caps *protocol.Message) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	if caps != nil {
		if err := s.write(conn, caps); err != nil {
			return
		}
	}
	for {
		req, err := protocol.ReadMessage(conn, s.codec)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		for _, reply := range s.handle(req) {
			if err := s.write(conn, reply); err != nil {
				return
			}
		}
	}
}

func (s *Server) write(conn net.Conn, m *protocol.Message) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return protocol.WriteMessage(conn, s.codec, m)
}

func (s *Server) handle(req *protocol.Message) []*protocol.Message {
	s.mu.Lock()
	rcc, forced := s.rcc[req.Code]
	s.mu.Unlock()

	switch req.Code {
	case protocol.CmdNXCPCaps, protocol.CmdKeepalive:
		return nil
	case protocol.CmdGetObjects:
		if forced {
			return []*protocol.Message{Completed(req, rcc)}
		}
		return s.objectList(req)
	case protocol.CmdModifyObject:
		if forced {
			return []*protocol.Message{Completed(req, rcc)}
		}
		return s.modify(req)
	}
	return []*protocol.Message{Completed(req, protocol.RCCInvalidRequest)}
}

// objectList answers CMD_GET_OBJECTS with every object, or with the
// children of one object when TagSyncChildren is set, followed by the
// list terminator.
func (s *Server) objectList(req *protocol.Message) []*protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := req.GetUint64(protocol.TagObjectID)
	childrenOnly := req.Has(protocol.TagObjectID) && req.GetBool(protocol.TagSyncChildren)

	var out []*protocol.Message
	for _, id := range slices.Sorted(maps.Keys(s.objects)) {
		o := s.objects[id]
		if childrenOnly && !slices.Contains(o.Parents, parent) {
			continue
		}
		out = append(out, o.Message(protocol.CmdObject, req.ID))
	}
	end := protocol.NewReply(req, protocol.CmdObjectListEnd)
	end.SetInt32(protocol.TagRCC, protocol.RCCSuccess)
	return append(out, end)
}

// modify applies name and custom attribute changes, broadcasts the update
// and then completes the request.
func (s *Server) modify(req *protocol.Message) []*protocol.Message {
	id := req.GetUint64(protocol.TagObjectID)

	s.mu.Lock()
	o, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return []*protocol.Message{Completed(req, protocol.RCCInvalidObject)}
	}
	update := protocol.NewMessage(protocol.CmdObjectUpdate, 0)
	update.SetUint64(protocol.TagObjectID, id)
	if req.Has(protocol.TagObjectName) {
		o.Name = req.GetString(protocol.TagObjectName)
		update.SetString(protocol.TagObjectName, o.Name)
	}
	if req.Has(protocol.TagCustomAttrCount) {
		n := int(req.GetUint32(protocol.TagCustomAttrCount))
		o.CustomAttributes = make(map[string]string, n)
		update.SetUint32(protocol.TagCustomAttrCount, uint32(n))
		for i, tag := 0, protocol.TagCustomAttrBase; i < n; i, tag = i+1, tag+2 {
			o.CustomAttributes[req.GetString(tag)] = req.GetString(tag + 1)
			update.SetString(tag, req.GetString(tag))
			update.SetString(tag+1, req.GetString(tag+1))
		}
	}
	s.mu.Unlock()

	s.Push(update)
	return []*protocol.Message{Completed(req, protocol.RCCSuccess)}
}
