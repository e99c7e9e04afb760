package objects

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/fbuehrmann/netxms/pkg/logger"
	"github.com/fbuehrmann/netxms/pkg/observability"
	"github.com/fbuehrmann/netxms/pkg/protocol"
)

var (
	ErrMissingObjectID = errors.New("objects: message carries no object id")
	ErrObjectNotFound  = errors.New("objects: object not found")
)

// ChangeKind says what a mutation did to an object.
type ChangeKind int

const (
	Created ChangeKind = iota
	Updated
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Event reports one applied mutation. Object is a snapshot taken right
// after the mutation.
type Event struct {
	Kind     ChangeKind
	ObjectID uint64
	Object   *Object
}

// StoreOption configures a Store.
type StoreOption func(*Store)

func WithLogger(l *logger.Logger) StoreOption {
	return func(s *Store) { s.Logger = l }
}

func WithMetrics(m *observability.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// Store is the client-side object tree. Every parent/child edge is kept on
// both ends under a single write lock, so readers never observe a half
// applied edge. Readers receive copies.
//
// Subscribers are called synchronously, in apply order, after the write
// lock is released. They may read from the Store but must not mutate it.
type Store struct {
	*logger.Logger

	mu      sync.RWMutex
	objects map[uint64]*Object
	metrics *observability.Metrics

	queueMu    sync.Mutex
	queue      []Event    // filled under mu in apply order
	dispatchMu sync.Mutex // held while draining queue; never taken with mu held
	subMu      sync.Mutex
	subs       map[int]func(Event)
	nextSub    int
}

// NewStore returns an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		objects: make(map[uint64]*Object),
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logger.New()
	}
	s.Logger = s.With("component", "object-store")
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	return s
}

// ApplyFullObject creates or replaces the object described by a complete
// object message. Attributes the message omits are reset to defaults;
// client-local annotations and the child-sync state survive. Edges are
// maintained on both ends for every parent or child that is resident;
// ids of absent objects are kept and logged.
func (s *Store) ApplyFullObject(m *protocol.Message) (*Object, error) {
	return s.apply(m, true)
}

// ApplyUpdate applies a partial update: only the attributes present in m
// change. The object must already be resident.
func (s *Store) ApplyUpdate(m *protocol.Message) (*Object, error) {
	return s.apply(m, false)
}

func (s *Store) apply(m *protocol.Message, full bool) (*Object, error) {
	if !m.Has(protocol.TagObjectID) {
		return nil, ErrMissingObjectID
	}
	id := m.GetUint64(protocol.TagObjectID)

	s.mu.Lock()
	o, exists := s.objects[id]
	if !exists && !full {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: update for %d", ErrObjectNotFound, id)
	}

	kind := Updated
	var oldParents, oldChildren IDSet
	if exists {
		oldParents, oldChildren = o.Parents.Clone(), o.Children.Clone()
	} else {
		kind = Created
		o = newObject(id)
		oldParents, oldChildren = IDSet{}, IDSet{}
		s.objects[id] = o
	}
	knownChildren := oldChildren.Len()

	applyMessage(o, m, full)

	if o.Parents.Has(id) || o.Children.Has(id) {
		s.Warningf("object %d lists itself as parent or child, ignoring that edge", id)
		o.Parents.Remove(id)
		o.Children.Remove(id)
	}
	s.relink(o, oldParents, oldChildren)

	if exists && m.Has(protocol.TagChildCount) && o.ChildSync == SyncSynced &&
		int(m.GetUint32(protocol.TagChildCount)) != knownChildren {
		o.ChildSync = SyncStale
	}

	ev := Event{Kind: kind, ObjectID: id, Object: o.Clone()}
	s.metrics.SetObjects(len(s.objects))
	s.commit(ev)
	return ev.Object.Clone(), nil
}

// relink updates the opposite end of every edge of o that changed.
func (s *Store) relink(o *Object, oldParents, oldChildren IDSet) {
	for p := range o.Parents {
		if oldParents.Has(p) {
			continue
		}
		if po := s.live(p); po != nil {
			po.Children.Add(o.ID)
		} else {
			s.warnMissing(o.ID, p, "parent")
		}
	}
	for p := range oldParents {
		if !o.Parents.Has(p) {
			if po := s.live(p); po != nil {
				po.Children.Remove(o.ID)
			}
		}
	}
	for c := range o.Children {
		if oldChildren.Has(c) {
			continue
		}
		if co := s.live(c); co != nil {
			co.Parents.Add(o.ID)
		} else {
			s.warnMissing(o.ID, c, "child")
		}
	}
	for c := range oldChildren {
		if !o.Children.Has(c) {
			if co := s.live(c); co != nil {
				co.Parents.Remove(o.ID)
			}
		}
	}
}

// live returns the resident, non-deleted object with id.
func (s *Store) live(id uint64) *Object {
	if o, ok := s.objects[id]; ok && !o.Deleted {
		return o
	}
	return nil
}

func (s *Store) warnMissing(id, other uint64, role string) {
	s.metrics.IncConsistencyWarning()
	s.Debugf("object %d names %s %d which is not loaded", id, role, other)
}

// ApplyDelete marks the object deleted and removes it from its resident
// parents' child sets and its resident children's parent sets. It reports
// false when the object is not resident.
func (s *Store) ApplyDelete(id uint64) bool {
	s.mu.Lock()
	o, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	for p := range o.Parents {
		if po, ok := s.objects[p]; ok {
			po.Children.Remove(id)
		}
	}
	for c := range o.Children {
		if co, ok := s.objects[c]; ok {
			co.Parents.Remove(id)
		}
	}
	o.Deleted = true
	o.Parents = IDSet{}
	o.Children = IDSet{}

	s.commit(Event{Kind: Deleted, ObjectID: id, Object: o.Clone()})
	return true
}

// commit queues evs, releases the write lock and delivers everything
// queued so far. The caller holds s.mu. A writer that finds another
// goroutine delivering waits for it; the first one in drains events queued
// by later writers too, so delivery follows apply order.
func (s *Store) commit(evs ...Event) {
	s.queueMu.Lock()
	s.queue = append(s.queue, evs...)
	s.queueMu.Unlock()
	s.mu.Unlock()

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	for {
		s.queueMu.Lock()
		batch := s.queue
		s.queue = nil
		s.queueMu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, ev := range batch {
			s.deliver(ev)
		}
	}
}

// Subscribe registers fn for change events and returns a function that
// cancels the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// FindByID returns a copy of the object with id.
func (s *Store) FindByID(id uint64) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Len returns the number of resident objects, deleted ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Objects returns copies of all resident objects ordered by id.
func (s *Store) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Object, 0, len(s.objects))
	for _, id := range slices.Sorted(maps.Keys(s.objects)) {
		out = append(out, s.objects[id].Clone())
	}
	return out
}

// Annotate sets a client-local annotation on an object; an empty value
// removes the key. It reports false when the object is not resident.
func (s *Store) Annotate(id uint64, key, value string) bool {
	s.mu.Lock()
	o, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if value == "" {
		delete(o.Annotations, key)
	} else {
		if o.Annotations == nil {
			o.Annotations = map[string]string{}
		}
		o.Annotations[key] = value
	}
	s.commit(Event{Kind: Updated, ObjectID: id, Object: o.Clone()})
	return true
}

// Restore loads objects saved by an earlier session. Objects already
// resident are left alone. Restored objects start with an unknown
// child-sync state. It returns the number of objects added.
func (s *Store) Restore(objs []*Object) int {
	var events []Event
	s.mu.Lock()
	for _, saved := range objs {
		if saved == nil {
			continue
		}
		if _, ok := s.objects[saved.ID]; ok {
			continue
		}
		o := saved.Clone()
		o.ChildSync = SyncUnknown
		if o.Parents == nil {
			o.Parents = IDSet{}
		}
		if o.Children == nil {
			o.Children = IDSet{}
		}
		if o.TrustedNodes == nil {
			o.TrustedNodes = IDSet{}
		}
		if o.CustomAttributes == nil {
			o.CustomAttributes = map[string]string{}
		}
		s.objects[o.ID] = o
		events = append(events, Event{Kind: Created, ObjectID: o.ID, Object: o.Clone()})
	}
	s.metrics.SetObjects(len(s.objects))
	s.commit(events...)
	return len(events)
}

func (s *Store) deliver(ev Event) {
	s.subMu.Lock()
	keys := slices.Sorted(maps.Keys(s.subs))
	fns := make([]func(Event), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, s.subs[k])
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
