// Package session hosts one planner tab: a Store, its history and the
// bridge between them. Calls are serialised so the HTTP surface can share
// a single Session across request goroutines.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/command"
	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/history"
	"github.com/breatheroute/planner/internal/state"
	"github.com/breatheroute/planner/internal/store"
	"github.com/breatheroute/planner/internal/urlcodec"
)

// ErrNotDispatchable is returned by Dispatch for actions only the planner
// itself may produce.
var ErrNotDispatchable = errors.New("action cannot be dispatched")

// Config holds configuration for a Session.
type Config struct {
	// StartURL is the location the session is opened on (optional).
	StartURL string

	// Collaborators are handed to the store.
	Collaborators store.Collaborators

	// Metrics records store activity (optional).
	Metrics *store.Metrics

	// Logger for session operations.
	Logger zerolog.Logger
}

// Snapshot is the state of the session together with its address.
type Snapshot struct {
	State state.State `json:"state"`
	URL   string      `json:"url"`
}

// Session is a single-tab planner host.
type Session struct {
	mu     sync.Mutex
	store  *store.Store
	env    *history.MemoryEnvironment
	bridge *history.Bridge
	logger zerolog.Logger
}

// New opens a session on cfg.StartURL. An empty or unparseable start URL
// yields the default state.
func New(cfg Config) *Session {
	initial := urlcodec.Deserialize(cfg.StartURL)
	start := cfg.StartURL
	if start == "" {
		start = urlcodec.Serialize(initial)
	}

	st := store.New(store.Config{
		Initial:       &initial,
		Collaborators: cfg.Collaborators,
		Metrics:       cfg.Metrics,
		Logger:        cfg.Logger,
	})
	env := history.NewMemoryEnvironment(start)
	bridge := history.NewBridge(history.BridgeConfig{
		Store:       st,
		Environment: env,
		Logger:      cfg.Logger,
	})
	bridge.Start()

	return &Session{
		store:  st,
		env:    env,
		bridge: bridge,
		logger: cfg.Logger,
	}
}

// Snapshot returns the current state and URL.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{State: s.store.State(), URL: s.env.Location()}
}

// Dispatch applies a user intent. Itinerary mutations may trigger a route
// fetch; its error is returned alongside the resulting snapshot. Request
// lifecycle actions and RestoreState yield ErrNotDispatchable.
func (s *Session) Dispatch(ctx context.Context, a state.Action) (Snapshot, error) {
	if a == nil || !state.IsUserIntent(a.Type()) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.snapshot(), fmt.Errorf("%w: %s", ErrNotDispatchable, actionType(a))
	}
	return s.execute(ctx, command.ForAction(a))
}

// Search runs a forward geocoding search.
func (s *Session) Search(ctx context.Context, mode state.SearchMode, query string) (Snapshot, error) {
	return s.execute(ctx, command.Search(mode, query))
}

// Reverse looks up what lies at p.
func (s *Session) Reverse(ctx context.Context, p geo.Point) (Snapshot, error) {
	return s.execute(ctx, command.ReverseGeocode(p))
}

// Leisure loads the curated route catalog.
func (s *Session) Leisure(ctx context.Context) (Snapshot, error) {
	return s.execute(ctx, command.FetchLeisureRoutes())
}

func (s *Session) execute(ctx context.Context, eff store.Effect) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Execute(ctx, eff)
	return s.snapshot(), err
}

// Open navigates to a deep link. The decoded state replaces the current
// one and becomes a new history entry.
func (s *Session) Open(url string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Dispatch(state.RestoreState{Snapshot: urlcodec.Deserialize(url)})
	s.logger.Debug().Str("url", url).Msg("deep link opened")
	return s.snapshot()
}

// Back steps one entry back. It reports false at the start of history.
func (s *Session) Back() (Snapshot, bool) {
	return s.navigate(-1)
}

// Forward steps one entry forward. It reports false at the end of history.
func (s *Session) Forward() (Snapshot, bool) {
	return s.navigate(1)
}

func (s *Session) navigate(delta int) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.env.Go(delta)
	return s.snapshot(), moved
}

// History returns the URLs of every entry and the index of the current one.
func (s *Session) History() ([]string, int) {
	entries, index := s.env.Entries()
	urls := make([]string, len(entries))
	for i, e := range entries {
		urls[i] = e.URL
	}
	return urls, index
}

// Close detaches the history bridge.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridge.Close()
}

// Resolve decodes url without touching any session. Unlike Open it
// reports malformed links instead of falling back to the default state.
func Resolve(url string) (state.State, error) {
	return urlcodec.Parse(url)
}

func actionType(a state.Action) string {
	if a == nil {
		return "<nil>"
	}
	return string(a.Type())
}
