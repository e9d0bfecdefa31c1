package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the ordered, deduplicated message collection for one
// conversation. Insertion order is preserved; no client-side sorting —
// the server's returned order is trusted. The id index keeps
// AppendIfNew O(1), so long conversations do not degrade.
//
// A Store is owned by exactly one Session; the mutex only protects the
// snapshot accessors callers may hit from other goroutines.
type Store struct {
	mu    sync.RWMutex
	msgs  []Message
	index map[uuid.UUID]struct{}
}

func NewStore() *Store {
	return &Store{index: make(map[uuid.UUID]struct{})}
}

// Seed replaces the contents wholesale, in the given order. Used after
// the historical fetch on open and after a fallback-send refetch.
func (s *Store) Seed(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = make([]Message, len(msgs))
	copy(s.msgs, msgs)
	s.index = make(map[uuid.UUID]struct{}, len(msgs))
	for _, m := range msgs {
		s.index[m.ID] = struct{}{}
	}
}

// AppendIfNew inserts m at the end and reports whether an insertion
// occurred. A duplicate id leaves the store untouched — this idempotent
// merge is the sole deduplication mechanism, and it is what makes an
// at-least-once live echo harmless.
func (s *Store) AppendIfNew(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[m.ID]; ok {
		return false
	}
	s.index[m.ID] = struct{}{}
	s.msgs = append(s.msgs, m)
	return true
}

// Messages returns a copy of the current contents in order.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}
