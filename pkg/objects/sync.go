package objects

// NeedsChildSync reports whether the children of objectID must be fetched
// from the server before they can be relied upon: true unless the object
// is loaded and its children are marked synced.
func (s *Store) NeedsChildSync(objectID uint64) bool {
	return s.ChildSyncState(objectID) != SyncSynced
}

// ChildSyncState returns the child-sync state of objectID; objects not
// loaded report SyncUnknown.
func (s *Store) ChildSyncState(objectID uint64) SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.objects[objectID]; ok {
		return o.ChildSync
	}
	return SyncUnknown
}

// MarkChildSynced records that every child of objectID has been loaded. It
// reports false when the object is not loaded.
func (s *Store) MarkChildSynced(objectID uint64) bool {
	return s.setChildSync(objectID, SyncSynced)
}

// InvalidateChildSync forces the next NeedsChildSync for objectID to
// return true.
func (s *Store) InvalidateChildSync(objectID uint64) bool {
	return s.setChildSync(objectID, SyncStale)
}

func (s *Store) setChildSync(objectID uint64, st SyncState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[objectID]
	if !ok {
		return false
	}
	o.ChildSync = st
	return true
}
