package relay

// seenSet remembers the most recent event IDs, evicting the oldest once full.
// It is owned by one dispatch goroutine and is not safe for concurrent use.
type seenSet struct {
	capacity int
	order    []string
	next     int
	ids      map[string]struct{}
}

func newSeenSet(capacity int) *seenSet {
	if capacity <= 0 {
		capacity = DefaultSeenCacheSize
	}
	return &seenSet{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		ids:      make(map[string]struct{}, capacity),
	}
}

// Add records id and reports whether it was new.
func (s *seenSet) Add(id string) bool {
	if _, exists := s.ids[id]; exists {
		return false
	}

	if len(s.order) < s.capacity {
		s.order = append(s.order, id)
	} else {
		delete(s.ids, s.order[s.next])
		s.order[s.next] = id
		s.next = (s.next + 1) % s.capacity
	}
	s.ids[id] = struct{}{}
	return true
}
