package storage

import (
	"sync"
	"time"
)

// SeenTracker remembers which videos were already summarized so a
// scheduled digest does not repeat them. Entries live in memory only
// and expire after maxAge; a restart intentionally starts fresh.
type SeenTracker struct {
	mu     sync.RWMutex
	seen   map[string]time.Time
	maxAge time.Duration
	now    func() time.Time
}

// NewSeenTracker creates a tracker whose entries expire after maxAge.
func NewSeenTracker(maxAge time.Duration) *SeenTracker {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &SeenTracker{
		seen:   make(map[string]time.Time),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// IsSeen checks if a video was summarized within the tracking window.
func (st *SeenTracker) IsSeen(videoID string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()

	seenAt, exists := st.seen[videoID]
	if !exists {
		return false
	}
	return st.now().Sub(seenAt) < st.maxAge
}

// MarkSeen records a video and prunes entries past the window.
func (st *SeenTracker) MarkSeen(videoID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.seen[videoID] = now

	cutoff := now.Add(-st.maxAge)
	for id, seenAt := range st.seen {
		if seenAt.Before(cutoff) {
			delete(st.seen, id)
		}
	}
}

// Count returns the number of tracked videos.
func (st *SeenTracker) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.seen)
}
