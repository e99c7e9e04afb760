package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fbuehrmann/netxms/pkg/modify"
	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// ErrConnectionLost is returned for requests whose channel closed before
// the reply arrived.
var ErrConnectionLost = errors.New("session: connection lost before reply")

// RequestError is a reply carrying a non-zero completion code.
type RequestError struct {
	Command uint16
	Code    int32
}

func (e *RequestError) Error() string {
	name, ok := protocol.RCCNames[e.Code]
	if !ok {
		name = "UNKNOWN"
	}
	return fmt.Sprintf("session: %s failed: RCC %d (%s)", protocol.CommandName(e.Command), e.Code, name)
}

// Request sends msg under a fresh request id and waits for the reply. The
// reply is returned together with a *RequestError when its completion
// code is not success.
func (s *Session) Request(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
	msg.ID = s.nextID.Add(1)
	ch := make(chan *protocol.Message, 1)

	s.mu.Lock()
	s.pending[msg.ID] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, msg.ID)
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := s.conn.Send(msg); err != nil {
		return nil, err
	}

	var reply *protocol.Message
	select {
	case reply = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if reply == nil {
		return nil, ErrConnectionLost
	}
	s.metrics.ObserveLatency(time.Since(start))

	if rcc := reply.GetInt32(protocol.TagRCC); rcc != protocol.RCCSuccess {
		s.metrics.IncRequestError()
		return reply, &RequestError{Command: msg.Code, Code: rcc}
	}
	return reply, nil
}

// resolve hands m to the request waiting for its id.
func (s *Session) resolve(m *protocol.Message) bool {
	s.mu.Lock()
	ch, ok := s.pending[m.ID]
	if ok {
		delete(s.pending, m.ID)
	}
	s.mu.Unlock()
	if ok {
		ch <- m
	}
	return ok
}

// failPending wakes every waiting request with ErrConnectionLost.
func (s *Session) failPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.pending {
		ch <- nil
		delete(s.pending, id)
	}
}

// Modify sends a modification and waits for the server to complete it.
// The server announces the resulting changes as object updates, which the
// store applies before the completion reply is delivered.
func (s *Session) Modify(ctx context.Context, mod *modify.Modification) error {
	msg, err := mod.Build(0)
	if err != nil {
		return err
	}
	_, err = s.Request(ctx, msg)
	if err != nil {
		s.Warningf("modify object %d (%s): %v", mod.ObjectID(), mod.Flags(), err)
		return err
	}
	s.Debugf("modified object %d (%s)", mod.ObjectID(), mod.Flags())
	return nil
}
