package objects

import (
	"maps"
	"slices"
)

// IsAncestorOf reports whether candidate is reachable from objectID by
// following parent edges. An object is not its own ancestor, even on a
// cycle. Parent ids of objects not loaded still match but cannot be
// walked further.
func (s *Store) IsAncestorOf(candidate, objectID uint64) bool {
	if candidate == objectID {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, ok := s.objects[objectID]
	if !ok {
		return false
	}
	visited := map[uint64]bool{objectID: true}
	stack := start.Parents.Sorted()
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == candidate {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		if o, ok := s.objects[id]; ok {
			for p := range o.Parents {
				if !visited[p] {
					stack = append(stack, p)
				}
			}
		}
	}
	return false
}

// CollectDescendants returns copies of every loaded object reachable from
// objectID through child edges, each once, ordered by id. With a class
// other than ClassAny only objects of that class are returned, though the
// walk still passes through objects of other classes. The start object is
// never included.
func (s *Store) CollectDescendants(objectID uint64, class Class) []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, ok := s.objects[objectID]
	if !ok {
		return nil
	}
	visited := map[uint64]bool{objectID: true}
	found := map[uint64]*Object{}
	stack := start.Children.Sorted()
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		o, ok := s.objects[id]
		if !ok {
			continue
		}
		if class == ClassAny || o.Class == class {
			found[id] = o
		}
		for c := range o.Children {
			if !visited[c] {
				stack = append(stack, c)
			}
		}
	}

	out := make([]*Object, 0, len(found))
	for _, id := range slices.Sorted(maps.Keys(found)) {
		out = append(out, found[id].Clone())
	}
	return out
}
