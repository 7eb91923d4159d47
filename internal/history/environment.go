// Package history mirrors planner state into a browser-like history stack.
package history

import (
	"sync"

	"github.com/breatheroute/planner/internal/state"
)

// Entry is one navigable history entry. Snapshot is nil for entries that
// were not created by a push, such as the page the session was opened on.
type Entry struct {
	URL      string       `json:"url"`
	Snapshot *state.State `json:"-"`
}

// NavigateFunc receives the entry reached by back/forward navigation.
type NavigateFunc func(e Entry)

// Environment is the history API the Bridge drives.
type Environment interface {
	// Push adds an entry after the current one, dropping any forward entries.
	Push(snapshot state.State, url string)

	// Replace overwrites the current entry.
	Replace(snapshot state.State, url string)

	// Location returns the URL of the current entry.
	Location() string

	// OnNavigate registers fn for back/forward navigation and returns a
	// function that unregisters it.
	OnNavigate(fn NavigateFunc) (unregister func())
}

// MemoryEnvironment is an in-process Environment with browser semantics.
type MemoryEnvironment struct {
	mu       sync.Mutex
	entries  []Entry
	index    int
	handlers map[int]NavigateFunc
	nextID   int
}

// NewMemoryEnvironment creates a history positioned on url.
func NewMemoryEnvironment(url string) *MemoryEnvironment {
	return &MemoryEnvironment{
		entries:  []Entry{{URL: url}},
		handlers: make(map[int]NavigateFunc),
	}
}

// Push adds an entry after the current one, dropping any forward entries.
func (m *MemoryEnvironment) Push(snapshot state.State, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries[:m.index+1], Entry{URL: url, Snapshot: &snapshot})
	m.index++
}

// Replace overwrites the current entry.
func (m *MemoryEnvironment) Replace(snapshot state.State, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.index] = Entry{URL: url, Snapshot: &snapshot}
}

// Location returns the URL of the current entry.
func (m *MemoryEnvironment) Location() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.entries[m.index].URL
}

// OnNavigate registers fn for back/forward navigation.
func (m *MemoryEnvironment) OnNavigate(fn NavigateFunc) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.handlers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}
}

// Back moves one entry back. It reports false at the first entry.
func (m *MemoryEnvironment) Back() bool {
	return m.Go(-1)
}

// Forward moves one entry forward. It reports false at the last entry.
func (m *MemoryEnvironment) Forward() bool {
	return m.Go(1)
}

// Go moves delta entries and notifies the navigate handlers. Out of range
// moves do nothing and report false.
func (m *MemoryEnvironment) Go(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if delta == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = target
	entry := m.entries[target]

	handlers := make([]NavigateFunc, 0, len(m.handlers))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.handlers[id]; ok {
			handlers = append(handlers, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(entry)
	}
	return true
}

// Entries returns a copy of the history stack and the current index.
func (m *MemoryEnvironment) Entries() ([]Entry, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, m.index
}

var _ Environment = (*MemoryEnvironment)(nil)
