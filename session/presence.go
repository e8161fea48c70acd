package session

// presenceWindow collects the distinct sender fingerprints observed
// between two broadcast boundaries. Only the host keeps one; members
// never compute their own count.
type presenceWindow struct {
	seen map[string]struct{}
}

func newPresenceWindow() *presenceWindow {
	return &presenceWindow{seen: make(map[string]struct{})}
}

func (w *presenceWindow) Observe(fingerprint string) {
	w.seen[fingerprint] = struct{}{}
}

// Flush returns the distinct count for the closing window and resets
// the observed set for the next one.
func (w *presenceWindow) Flush() int {
	count := len(w.seen)
	w.seen = make(map[string]struct{})
	return count
}
