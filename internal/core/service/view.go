package service

import (
	"sync"
)

// View ties fetched results to the session they were requested under. Once
// unmounted, or once the session changes, results are discarded instead of
// applied. The underlying request is not cancelled.
type View struct {
	store *SessionStore
	gen   uint64

	mu      sync.Mutex
	mounted bool
}

// Mount starts a view bound to the current session generation.
func (s *SessionStore) Mount() *View {
	return &View{store: s, gen: s.Generation(), mounted: true}
}

// Unmount marks the view as gone.
func (v *View) Unmount() {
	v.mu.Lock()
	v.mounted = false
	v.mu.Unlock()
}

// Live reports whether results may still be applied.
func (v *View) Live() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted && v.store.Generation() == v.gen
}

// Apply runs fn only while the view is live and reports whether it ran.
func (v *View) Apply(fn func()) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted || v.store.Generation() != v.gen {
		return false
	}
	fn()
	return true
}
