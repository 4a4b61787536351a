package alert

import (
	"sort"
	"sync"
	"time"
)

// userState is one user's lockable unit: settings plus the cooldown shared by
// every alert kind. Any successful delivery resets the cooldown for all kinds.
type userState struct {
	mu          sync.Mutex
	settings    Settings
	lastAlertAt time.Time
}

// Registry holds per-user alert state. Users are created lazily with default
// settings on first access. The outer lock only guards the map; per-user work
// happens under each user's own lock.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*userState
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*userState)}
}

func (r *Registry) state(email string) *userState {
	r.mu.RLock()
	st, ok := r.users[email]
	r.mu.RUnlock()
	if ok {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok = r.users[email]; ok {
		return st
	}
	st = &userState{settings: DefaultSettings()}
	r.users[email] = st
	return st
}

// Get returns the user's settings, creating defaults on first access.
func (r *Registry) Get(email string) Settings {
	st := r.state(email)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.settings
}

// Update replaces the user's settings.
func (r *Registry) Update(email string, s Settings) {
	st := r.state(email)
	st.mu.Lock()
	st.settings = s.normalize()
	st.mu.Unlock()
}

// Ensure registers a user with default settings if absent.
func (r *Registry) Ensure(email string) {
	r.state(email)
}

// Users returns all known user emails in stable order.
func (r *Registry) Users() []string {
	r.mu.RLock()
	emails := make([]string, 0, len(r.users))
	for email := range r.users {
		emails = append(emails, email)
	}
	r.mu.RUnlock()
	sort.Strings(emails)
	return emails
}

// LastAlertAt reports when the user last received any alert.
func (r *Registry) LastAlertAt(email string) time.Time {
	st := r.state(email)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastAlertAt
}

// withUser runs fn holding the user's lock. The engine evaluates a whole
// cycle for a user under this lock so the scheduler path and the on-demand
// request path cannot double-deliver inside one cooldown window.
func (r *Registry) withUser(email string, fn func(st *userState)) {
	st := r.state(email)
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(st)
}
