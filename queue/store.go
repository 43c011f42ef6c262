package queue

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Entry is one waiting user. Queue membership only matters while the
// process lives, so entries stay in memory.
type Entry struct {
	GuildID  snowflake.ID
	UserID   snowflake.ID
	JoinedAt time.Time
}

// Store keeps one FIFO waiting list per guild. Gateway events and command
// handlers arrive on different goroutines, hence the mutex.
type Store struct {
	mu     sync.Mutex
	queues map[snowflake.ID][]Entry
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		queues: make(map[snowflake.ID][]Entry),
		now:    time.Now,
	}
}

// Add appends the user if not already queued. Re-adding is a no-op.
func (s *Store) Add(guildID, userID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.queues[guildID] {
		if entry.UserID == userID {
			return
		}
	}
	s.queues[guildID] = append(s.queues[guildID], Entry{
		GuildID:  guildID,
		UserID:   userID,
		JoinedAt: s.now(),
	})
}

// Remove drops the user's entry if present.
func (s *Store) Remove(guildID, userID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.queues[guildID]
	for i, entry := range entries {
		if entry.UserID == userID {
			s.queues[guildID] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// PopNext removes and returns the head entry.
func (s *Store) PopNext(guildID snowflake.ID) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.queues[guildID]
	if len(entries) == 0 {
		return Entry{}, false
	}
	head := entries[0]
	s.queues[guildID] = entries[1:]
	return head, true
}

// Snapshot returns a copy of the current queue order.
func (s *Store) Snapshot(guildID snowflake.ID) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.queues[guildID]
	snapshot := make([]Entry, len(entries))
	copy(snapshot, entries)
	return snapshot
}

// Clear empties the guild's queue unconditionally.
func (s *Store) Clear(guildID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[guildID] = nil
}
