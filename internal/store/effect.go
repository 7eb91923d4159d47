package store

import (
	"context"
	"fmt"

	"github.com/breatheroute/planner/internal/state"
)

// Effect is a described side effect run by Store.Execute. Effects dispatch
// plain actions around their work.
type Effect interface {
	Run(ctx context.Context, s *Store) error
}

// Named is implemented by effects that report a name for logs and metrics.
type Named interface {
	Name() string
}

// EffectFunc adapts a function to Effect.
type EffectFunc func(ctx context.Context, s *Store) error

// Run calls f.
func (f EffectFunc) Run(ctx context.Context, s *Store) error {
	return f(ctx, s)
}

func effectName(eff Effect) string {
	if n, ok := eff.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", eff)
}

// Request is the start/success/failure lifecycle around one collaborator
// call. Start is dispatched before Call begins; exactly one of Success or
// Failure is dispatched after it returns. The failure action carries the
// call's error unmodified.
type Request[T any] struct {
	Label   string
	Start   state.Action
	Call    func(ctx context.Context, c Collaborators) (T, error)
	Success func(T) state.Action
	Failure func(error) state.Action
}

// Name returns the request label.
func (r Request[T]) Name() string {
	return r.Label
}

// Run dispatches the lifecycle. It returns the call's error.
func (r Request[T]) Run(ctx context.Context, s *Store) error {
	s.Dispatch(r.Start)

	v, err := r.Call(ctx, s.Collaborators())
	if err != nil {
		s.logger.Error().Err(err).Str("effect", r.Label).Msg("collaborator call failed")
		s.Dispatch(r.Failure(err))
		return err
	}

	s.Dispatch(r.Success(v))
	return nil
}

// Sequence runs effects in order and stops at the first error.
func Sequence(effects ...Effect) Effect {
	return EffectFunc(func(ctx context.Context, s *Store) error {
		for _, eff := range effects {
			if err := s.Execute(ctx, eff); err != nil {
				return err
			}
		}
		return nil
	})
}
