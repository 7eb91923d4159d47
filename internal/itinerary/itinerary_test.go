package itinerary_test

import (
	"encoding/json"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/itinerary"
)

func place(name string, lat, lon float64) *geocoding.Result {
	return &geocoding.Result{
		Kind:     geocoding.KindPlace,
		Name:     name,
		Location: geo.Point{Lat: lat, Lon: lon},
	}
}

func ids(stops []itinerary.Stop) []int {
	out := make([]int, len(stops))
	for i, s := range stops {
		out[i] = s.ID
	}
	return out
}

func intPtr(i int) *int { return &i }

func TestInsert_Scenario(t *testing.T) {
	pointA := place("A", 52.37, 4.89)
	pointB := place("B", 52.38, 4.90)

	stops := itinerary.DefaultStops()
	stops = itinerary.Insert(stops, 2, pointA, nil)
	assert.Equal(t, []itinerary.Stop{{ID: 0}, {ID: 1}, {ID: 2, Item: pointA}}, stops)

	stops = itinerary.Insert(stops, 3, pointB, intPtr(1))
	assert.Equal(t, []itinerary.Stop{
		{ID: 0},
		{ID: 3, Item: pointB},
		{ID: 1},
		{ID: 2, Item: pointA},
	}, stops)
	assert.Len(t, itinerary.Filled(stops), 2)
}

func TestInsert_UnknownBeforeAppends(t *testing.T) {
	stops := itinerary.Insert(itinerary.DefaultStops(), 2, nil, intPtr(42))
	assert.Equal(t, []int{0, 1, 2}, ids(stops))
}

func TestInsert_DoesNotMutateInput(t *testing.T) {
	in := itinerary.DefaultStops()
	_ = itinerary.Insert(in, 2, nil, intPtr(0))
	assert.Equal(t, itinerary.DefaultStops(), in)
}

func TestUpdate(t *testing.T) {
	a := place("A", 1, 1)
	in := []itinerary.Stop{{ID: 0}, {ID: 1}}

	out := itinerary.Update(in, 1, a)
	assert.Equal(t, []itinerary.Stop{{ID: 0}, {ID: 1, Item: a}}, out)
	assert.Nil(t, in[1].Item)

	assert.Equal(t, in, itinerary.Update(in, 7, a))
}

func TestRemove(t *testing.T) {
	in := []itinerary.Stop{{ID: 0}, {ID: 3}, {ID: 1}}
	assert.Equal(t, []int{0, 1}, ids(itinerary.Remove(in, 3)))
	assert.Equal(t, []int{0, 3, 1}, ids(itinerary.Remove(in, 9)))
	assert.Equal(t, []int{0, 3, 1}, ids(in))
}

func TestMove(t *testing.T) {
	three := []itinerary.Stop{{ID: 0}, {ID: 1}, {ID: 2}}

	tests := []struct {
		name   string
		source int
		target int
		pos    itinerary.Position
		want   []int
	}{
		{"last after first", 2, 0, itinerary.After, []int{0, 2, 1}},
		{"last before first", 2, 0, itinerary.Before, []int{2, 0, 1}},
		{"first after last", 0, 2, itinerary.After, []int{1, 2, 0}},
		{"first before last", 0, 2, itinerary.Before, []int{1, 0, 2}},
		{"already before neighbour", 0, 1, itinerary.Before, []int{0, 1, 2}},
		{"already after neighbour", 1, 0, itinerary.After, []int{0, 1, 2}},
		{"swap neighbours forward", 0, 1, itinerary.After, []int{1, 0, 2}},
		{"swap neighbours backward", 1, 0, itinerary.Before, []int{1, 0, 2}},
		{"onto itself", 1, 1, itinerary.After, []int{0, 1, 2}},
		{"unknown source", 9, 1, itinerary.After, []int{0, 1, 2}},
		{"unknown target", 1, 9, itinerary.Before, []int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := itinerary.Move(three, tt.source, tt.target, tt.pos)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, []int{0, 1, 2}, ids(three), "input must not change")
		})
	}
}

func TestMove_UnknownIDIsValueEqual(t *testing.T) {
	in := []itinerary.Stop{{ID: 0, Item: place("A", 1, 1)}, {ID: 1}}
	assert.Equal(t, in, itinerary.Move(in, 5, 0, itinerary.Before))
	assert.Equal(t, in, itinerary.Move(in, 0, 5, itinerary.After))
}

// TestMove_Properties checks, over random sequences, that a move keeps the
// multiset of ids, keeps the source's item and puts the source on the
// requested side of the target.
func TestMove_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 2000; iter++ {
		n := 2 + rng.Intn(8)
		stops := make([]itinerary.Stop, n)
		for i, id := range rng.Perm(n) {
			stops[i] = itinerary.Stop{ID: id * 3}
			if rng.Intn(2) == 0 {
				stops[i].Item = place("p", float64(i), float64(id))
			}
		}

		source := stops[rng.Intn(n)]
		target := stops[rng.Intn(n)]
		pos := itinerary.Position(rng.Intn(2))

		got := itinerary.Move(stops, source.ID, target.ID, pos)

		require.Len(t, got, n)
		before, after := ids(stops), ids(got)
		sort.Ints(before)
		sort.Ints(after)
		require.Equal(t, before, after)

		if source.ID == target.ID {
			require.Equal(t, stops, got)
			continue
		}

		si := itinerary.Index(got, source.ID)
		ti := itinerary.Index(got, target.ID)
		require.Same(t, source.Item, got[si].Item)
		if pos == itinerary.Before {
			require.Equal(t, ti-1, si, "%v move %d before %d = %v", ids(stops), source.ID, target.ID, ids(got))
		} else {
			require.Equal(t, ti+1, si, "%v move %d after %d = %v", ids(stops), source.ID, target.ID, ids(got))
		}

		// everyone else keeps their relative order
		var restIn, restOut []int
		for _, s := range stops {
			if s.ID != source.ID {
				restIn = append(restIn, s.ID)
			}
		}
		for _, s := range got {
			if s.ID != source.ID {
				restOut = append(restOut, s.ID)
			}
		}
		require.Equal(t, restIn, restOut)
	}
}

// TestIDStability runs random operation sequences and checks that an id,
// once seen, keeps its item until an update or remove touches it.
func TestIDStability(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for iter := 0; iter < 300; iter++ {
		stops := itinerary.DefaultStops()
		nextID := itinerary.FirstFreeID
		items := map[int]*geocoding.Result{0: nil, 1: nil}

		for step := 0; step < 30; step++ {
			switch op := rng.Intn(4); {
			case op == 0 || len(stops) == 0:
				item := place("i", float64(step), 0)
				var before *int
				if len(stops) > 0 && rng.Intn(2) == 0 {
					before = intPtr(stops[rng.Intn(len(stops))].ID)
				}
				stops = itinerary.Insert(stops, nextID, item, before)
				items[nextID] = item
				nextID++
			case op == 1:
				id := stops[rng.Intn(len(stops))].ID
				item := place("u", float64(step), 1)
				stops = itinerary.Update(stops, id, item)
				items[id] = item
			case op == 2:
				a := stops[rng.Intn(len(stops))].ID
				b := stops[rng.Intn(len(stops))].ID
				stops = itinerary.Move(stops, a, b, itinerary.Position(rng.Intn(2)))
			default:
				id := stops[rng.Intn(len(stops))].ID
				stops = itinerary.Remove(stops, id)
				delete(items, id)
			}

			require.Len(t, stops, len(items))
			for _, s := range stops {
				want, ok := items[s.ID]
				require.True(t, ok, "unexpected id %d", s.ID)
				require.Same(t, want, s.Item)
			}
		}
	}
}

func TestPoints(t *testing.T) {
	street := &geocoding.Result{
		Kind:     geocoding.KindStreet,
		Street:   "Damrak",
		Location: geo.Point{Lat: 9, Lon: 9},
	}
	stops := []itinerary.Stop{
		{ID: 0, Item: place("A", 52.1, 4.1)},
		{ID: 1},
		{ID: 2, Item: street},
	}

	assert.Equal(t, []geo.Point{{Lat: 52.1, Lon: 4.1}, {Lat: 9, Lon: 9}}, itinerary.Points(stops))
	assert.Equal(t, 2, itinerary.MaxID(stops))
	assert.Equal(t, -1, itinerary.MaxID(nil))
}

func TestPosition_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		P itinerary.Position `json:"p"`
	}{itinerary.After})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"AFTER"}`, string(b))

	var p itinerary.Position
	require.NoError(t, p.UnmarshalText([]byte("before")))
	assert.Equal(t, itinerary.Before, p)
	assert.Error(t, p.UnmarshalText([]byte("sideways")))
}
