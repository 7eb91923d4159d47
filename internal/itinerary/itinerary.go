// Package itinerary implements the ordering operations over a list of
// itinerary stops. Stops are addressed by id, never by position. Every
// operation returns a fresh slice and leaves its input untouched; unknown ids
// make an operation a no-op.
package itinerary

import (
	"fmt"
	"strings"

	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
)

// Stop is one slot of the itinerary. Item is nil until a location is picked.
type Stop struct {
	ID   int               `json:"id"`
	Item *geocoding.Result `json:"item"`
}

// Filled reports whether a location has been picked for the stop.
func (s Stop) Filled() bool {
	return s.Item != nil
}

// Position says on which side of the target a moved stop lands.
type Position int

const (
	Before Position = iota
	After
)

func (p Position) String() string {
	switch p {
	case Before:
		return "BEFORE"
	case After:
		return "AFTER"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// MarshalText encodes the position as BEFORE or AFTER.
func (p Position) MarshalText() ([]byte, error) {
	if p != Before && p != After {
		return nil, fmt.Errorf("invalid position %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText accepts BEFORE or AFTER, case-insensitively.
func (p *Position) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "BEFORE":
		*p = Before
	case "AFTER":
		*p = After
	default:
		return fmt.Errorf("invalid position %q", string(text))
	}
	return nil
}

// DefaultStops is the empty origin/destination pair of a fresh itinerary.
func DefaultStops() []Stop {
	return []Stop{{ID: 0}, {ID: 1}}
}

// FirstFreeID is the id handed out after DefaultStops.
const FirstFreeID = 2

// Index returns the position of the stop with id, or -1.
func Index(stops []Stop, id int) int {
	for i := range stops {
		if stops[i].ID == id {
			return i
		}
	}
	return -1
}

// Insert adds a stop with the given id and item before the stop with
// beforeID, or at the end when beforeID is nil or unknown. The caller owns id
// allocation.
func Insert(stops []Stop, id int, item *geocoding.Result, beforeID *int) []Stop {
	at := len(stops)
	if beforeID != nil {
		if i := Index(stops, *beforeID); i >= 0 {
			at = i
		}
	}

	out := make([]Stop, 0, len(stops)+1)
	out = append(out, stops[:at]...)
	out = append(out, Stop{ID: id, Item: item})
	out = append(out, stops[at:]...)
	return out
}

// Update replaces the item of the stop with id.
func Update(stops []Stop, id int, item *geocoding.Result) []Stop {
	out := Clone(stops)
	if i := Index(out, id); i >= 0 {
		out[i].Item = item
	}
	return out
}

// Remove drops the stop with id. Surviving ids are not renumbered.
func Remove(stops []Stop, id int) []Stop {
	out := make([]Stop, 0, len(stops))
	for _, s := range stops {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// Move relocates the stop with sourceID next to the stop with targetID, on
// the side given by pos. The moved stop keeps its id and item and every
// other stop keeps its relative order.
//
// The copy is inserted first and the original removed second. The
// original's index shifts by one when the copy lands at or before it.
func Move(stops []Stop, sourceID, targetID int, pos Position) []Stop {
	src := Index(stops, sourceID)
	dst := Index(stops, targetID)
	if src < 0 || dst < 0 || sourceID == targetID {
		return Clone(stops)
	}

	at := dst
	if pos == After {
		at++
	}

	out := make([]Stop, 0, len(stops)+1)
	out = append(out, stops[:at]...)
	out = append(out, stops[src])
	out = append(out, stops[at:]...)

	orig := src
	if at <= src {
		orig++
	}
	return append(out[:orig], out[orig+1:]...)
}

// Clone returns a shallow copy of stops.
func Clone(stops []Stop) []Stop {
	if stops == nil {
		return nil
	}
	out := make([]Stop, len(stops))
	copy(out, stops)
	return out
}

// Filled returns the stops that have an item, in order.
func Filled(stops []Stop) []Stop {
	out := make([]Stop, 0, len(stops))
	for _, s := range stops {
		if s.Filled() {
			out = append(out, s)
		}
	}
	return out
}

// Points resolves every filled stop to a point, in order.
func Points(stops []Stop) []geo.Point {
	points := make([]geo.Point, 0, len(stops))
	for _, s := range stops {
		if s.Filled() {
			points = append(points, s.Item.Point())
		}
	}
	return points
}

// MaxID returns the highest id in stops, or -1 when empty.
func MaxID(stops []Stop) int {
	maxID := -1
	for _, s := range stops {
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	return maxID
}
