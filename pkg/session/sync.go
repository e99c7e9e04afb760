package session

import (
	"context"

	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// SyncObjects loads every object the user can see. Once the list
// terminator arrives all objects are resident, so every object's children
// are marked synced. It returns the number of objects in the store.
func (s *Session) SyncObjects(ctx context.Context) (int, error) {
	req := protocol.NewMessage(protocol.CmdGetObjects, 0)
	if _, err := s.Request(ctx, req); err != nil {
		return 0, err
	}
	objs := s.store.Objects()
	for _, o := range objs {
		s.store.MarkChildSynced(o.ID)
	}
	s.Infof("synchronized %d objects", len(objs))
	return len(objs), nil
}

// SyncChildren loads the direct children of objectID unless they are
// already known to be complete. It reports whether a request was sent.
// The object is marked synced only after the terminator, which the
// server sends after the last child.
func (s *Session) SyncChildren(ctx context.Context, objectID uint64) (bool, error) {
	if !s.store.NeedsChildSync(objectID) {
		return false, nil
	}
	req := protocol.NewMessage(protocol.CmdGetObjects, 0)
	req.SetUint64(protocol.TagObjectID, objectID)
	req.SetBool(protocol.TagSyncChildren, true)
	if _, err := s.Request(ctx, req); err != nil {
		return true, err
	}
	s.store.MarkChildSynced(objectID)
	return true, nil
}
