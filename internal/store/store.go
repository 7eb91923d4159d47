// Package store holds the single mutable cell of planner state.
//
// A Store is confined to one goroutine at a time: Dispatch, State, Subscribe
// and Execute must not be called concurrently. Hosts that serve several
// goroutines serialise access themselves.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/routing"
	"github.com/breatheroute/planner/internal/state"
)

// ErrReducerRunning is the panic value when State is read during a reduce.
var ErrReducerRunning = errors.New("state read while a reducer is running")

// Reducer computes the next state. state.Reduce is the default.
type Reducer func(state.State, state.Action) (state.State, error)

// Listener is notified after every dispatch. It reads the new state through
// Store.State.
type Listener func()

// Collaborators are the remote services effects call.
type Collaborators struct {
	Routes   routing.Solver
	Geocoder geocoding.Geocoder
	Catalog  leisure.Catalog
}

// Config holds configuration for a Store.
type Config struct {
	// Initial is the starting state (optional, defaults to state.Default()).
	Initial *state.State

	// Reducer overrides the root reducer (optional).
	Reducer Reducer

	// Collaborators are handed to every effect.
	Collaborators Collaborators

	// Metrics records dispatches and effect runs (optional).
	Metrics *Metrics

	// Logger for store operations.
	Logger zerolog.Logger
}

type subscription struct {
	id       int
	listener Listener
}

// Store holds the current state and notifies listeners on change.
type Store struct {
	current   state.State
	reduce    Reducer
	reducing  bool
	listeners []subscription
	nextSubID int
	collab    Collaborators
	metrics   *Metrics
	logger    zerolog.Logger
}

// New creates a Store.
func New(cfg Config) *Store {
	initial := state.Default()
	if cfg.Initial != nil {
		initial = *cfg.Initial
	}

	reduce := cfg.Reducer
	if reduce == nil {
		reduce = state.Reduce
	}

	return &Store{
		current: initial,
		reduce:  reduce,
		collab:  cfg.Collaborators,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// State returns the current state. It panics with ErrReducerRunning when
// called from inside a reducer.
func (s *Store) State() state.State {
	if s.reducing {
		panic(ErrReducerRunning)
	}
	return s.current
}

// Collaborators returns the injected collaborators.
func (s *Store) Collaborators() Collaborators {
	return s.collab
}

// Dispatch reduces a into the next state and then calls every listener once,
// in subscription order. A nil or unregistered action is a programmer error
// and panics.
func (s *Store) Dispatch(a state.Action) {
	if a == nil {
		panic(fmt.Errorf("dispatch: %w: nil", state.ErrUnknownAction))
	}
	if s.reducing {
		panic(fmt.Errorf("dispatch %s: %w", a.Type(), ErrReducerRunning))
	}

	next, err := s.runReducer(a)
	if err != nil {
		panic(fmt.Errorf("dispatch %s: %w", a.Type(), err))
	}
	s.current = next

	s.logger.Debug().Str("action", string(a.Type())).Msg("action dispatched")
	if s.metrics != nil {
		s.metrics.recordAction(a.Type())
	}

	// Listeners added or removed during notification take effect next time.
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	for _, sub := range listeners {
		sub.listener()
	}
}

func (s *Store) runReducer(a state.Action) (state.State, error) {
	s.reducing = true
	defer func() { s.reducing = false }()
	return s.reduce(s.current, a)
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	id := s.nextSubID
	s.nextSubID++
	s.listeners = append(s.listeners, subscription{id: id, listener: l})

	return func() {
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Execute runs an effect against the store and returns its error.
func (s *Store) Execute(ctx context.Context, eff Effect) error {
	if eff == nil {
		panic("execute: nil effect")
	}
	if s.metrics == nil {
		return eff.Run(ctx, s)
	}
	return s.metrics.observe(ctx, effectName(eff), func(ctx context.Context) error {
		return eff.Run(ctx, s)
	})
}
