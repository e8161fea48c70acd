package session

import (
	"sort"
	"time"
)

// typingTracker keeps per-handle last-activity timestamps. There is no
// "stopped typing" message on the wire: entries only leave through the
// sweep, so the indicator clears even after an ungraceful disconnect.
type typingTracker struct {
	seen map[string]time.Time
}

func newTypingTracker() *typingTracker {
	return &typingTracker{seen: make(map[string]time.Time)}
}

func (t *typingTracker) Touch(handle string, now time.Time) {
	t.seen[handle] = now
}

// Sweep drops every entry older than maxAge, independent of new events.
func (t *typingTracker) Sweep(now time.Time, maxAge time.Duration) {
	for handle, last := range t.seen {
		if now.Sub(last) > maxAge {
			delete(t.seen, handle)
		}
	}
}

func (t *typingTracker) Handles() []string {
	handles := make([]string, 0, len(t.seen))
	for handle := range t.seen {
		handles = append(handles, handle)
	}
	sort.Strings(handles)
	return handles
}

func (t *typingTracker) Clear(handle string) {
	delete(t.seen, handle)
}

func (t *typingTracker) Reset() {
	t.seen = make(map[string]time.Time)
}
