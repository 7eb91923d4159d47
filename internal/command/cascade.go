package command

import (
	"context"

	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/itinerary"
	"github.com/breatheroute/planner/internal/state"
	"github.com/breatheroute/planner/internal/store"
)

type eventuallyUpdateRoutes struct {
	action state.Action
}

// EventuallyUpdateRoutes dispatches a unchanged and then, if the resulting
// itinerary has at least MinRoutableStops filled stops, fetches routes.
func EventuallyUpdateRoutes(a state.Action) store.Effect {
	return eventuallyUpdateRoutes{action: a}
}

func (e eventuallyUpdateRoutes) Name() string {
	return "eventually_update_routes"
}

func (e eventuallyUpdateRoutes) Run(ctx context.Context, s *store.Store) error {
	s.Dispatch(e.action)

	if len(itinerary.Filled(s.State().Itinerary.Stops)) < MinRoutableStops {
		return nil
	}
	return s.Execute(ctx, FetchRoutes())
}

// AddItineraryPoint inserts a stop before beforeID (nil appends).
func AddItineraryPoint(item *geocoding.Result, beforeID *int) store.Effect {
	return EventuallyUpdateRoutes(state.AddItineraryPoint{Item: item, BeforeID: beforeID})
}

// UpdateItineraryPoint sets the location of the stop with id.
func UpdateItineraryPoint(id int, item *geocoding.Result) store.Effect {
	return EventuallyUpdateRoutes(state.UpdateItineraryPoint{ID: id, Item: item})
}

// RemoveItineraryPoint removes the stop with id.
func RemoveItineraryPoint(id int) store.Effect {
	return EventuallyUpdateRoutes(state.RemoveItineraryPoint{ID: id})
}

// MoveItineraryPoint moves the stop sourceID next to targetID.
func MoveItineraryPoint(sourceID, targetID int, pos itinerary.Position) store.Effect {
	return EventuallyUpdateRoutes(state.MoveItineraryPoint{SourceID: sourceID, TargetID: targetID, Position: pos})
}

// ForAction picks the effect for a plain action: itinerary mutations go
// through EventuallyUpdateRoutes, everything else is dispatched as is.
func ForAction(a state.Action) store.Effect {
	if state.IsItineraryMutation(a) {
		return EventuallyUpdateRoutes(a)
	}
	return Action(a)
}
