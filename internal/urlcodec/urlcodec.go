// Package urlcodec maps planner state to a shareable path and back.
//
// Paths have the form
//
//	/<view>/@<lng>,<lat>,<zoom>z/data=<base64 JSON projection>
//
// Coordinates are truncated so that serializing a deserialized state yields
// the same path. Deserialize never fails: anything it cannot read yields the
// default state.
package urlcodec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/itinerary"
	"github.com/breatheroute/planner/internal/state"
)

// Decimal places kept in the path.
const (
	CoordinatePrecision = 6
	ZoomPrecision       = 2
)

const dataPrefix = "data="

var locationSegment = regexp.MustCompile(`^@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?),(\d+(?:\.\d+)?)z$`)

// Projection is the part of the state persisted in the path for a view.
type Projection struct {
	Itinerary *ItineraryProjection `json:"itinerary,omitempty"`
	Search    *SearchProjection    `json:"search,omitempty"`
}

// ItineraryProjection is persisted for the itinerary view.
type ItineraryProjection struct {
	Stops []itinerary.Stop `json:"stops"`
}

// SearchProjection is persisted for the search view.
type SearchProjection struct {
	SelectedSearchResult *geocoding.Result `json:"selectedSearchResult"`
}

// Project returns the projection for the active view of s.
func Project(s state.State) Projection {
	switch s.Navigation.View {
	case state.ViewItinerary:
		return Projection{Itinerary: &ItineraryProjection{Stops: s.Itinerary.Stops}}
	case state.ViewSearch:
		return Projection{Search: &SearchProjection{SelectedSearchResult: s.Search.SelectedSearchResult}}
	default:
		return Projection{}
	}
}

// Serialize returns the canonical path for s.
func Serialize(s state.State) string {
	payload, err := json.Marshal(Project(s))
	if err != nil {
		// Projections hold only plain data.
		panic(fmt.Sprintf("urlcodec: encoding projection: %v", err))
	}

	var b strings.Builder
	b.WriteString("/")
	b.WriteString(string(s.Navigation.View))
	viewport := s.Map.Normalize()
	b.WriteString("/@")
	b.WriteString(truncate(viewport.Center.Lon, CoordinatePrecision))
	b.WriteString(",")
	b.WriteString(truncate(viewport.Center.Lat, CoordinatePrecision))
	b.WriteString(",")
	b.WriteString(truncate(viewport.Zoom, ZoomPrecision))
	b.WriteString("z/")
	b.WriteString(dataPrefix)
	b.WriteString(url.PathEscape(base64.StdEncoding.EncodeToString(payload)))
	return b.String()
}

// Deserialize reads a path (or full URL) produced by Serialize. Segments may
// appear in any order and each is optional.
func Deserialize(raw string) state.State {
	s, err := Parse(raw)
	if err != nil {
		return state.Default()
	}
	return s
}

// Parse is Deserialize with the failure reported. It returns an error when
// the URL is malformed, the data segment does not decode, or nothing
// recognisable is present. A location segment that does not read leaves the
// default viewport in place.
func Parse(raw string) (state.State, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return state.State{}, fmt.Errorf("parsing url: %w", err)
	}

	s := state.Default()
	matched := false

	for _, seg := range strings.Split(u.EscapedPath(), "/") {
		switch {
		case seg == "":
			continue

		case strings.HasPrefix(seg, dataPrefix):
			p, err := decodeData(strings.TrimPrefix(seg, dataPrefix))
			if err != nil {
				return state.State{}, err
			}
			s = Merge(s, p)
			matched = true

		case strings.HasPrefix(seg, "@"):
			// An unreadable location keeps the default viewport.
			if viewport, ok := parseLocation(seg); ok {
				s.Map = viewport
				matched = true
			}

		default:
			if v, err := state.ParseView(seg); err == nil {
				s.Navigation.View = v
				matched = true
			}
		}
	}

	if !matched {
		return state.State{}, errors.New("no recognised segments")
	}
	return s, nil
}

func parseLocation(seg string) (state.Map, bool) {
	m := locationSegment.FindStringSubmatch(seg)
	if m == nil {
		return state.Map{}, false
	}
	lng, _ := strconv.ParseFloat(m[1], 64)
	lat, _ := strconv.ParseFloat(m[2], 64)
	zoom, _ := strconv.ParseFloat(m[3], 64)
	center := geo.Point{Lat: lat, Lon: lng}
	if center.Validate() != nil {
		return state.Map{}, false
	}
	return state.Map{Center: center, Zoom: zoom}, true
}

// Merge overlays the decoded projection on base. Only the itinerary stops
// and the selected search result are taken from p.
func Merge(base state.State, p Projection) state.State {
	if p.Itinerary != nil && p.Itinerary.Stops != nil {
		base.Itinerary.Stops = p.Itinerary.Stops
		base.Itinerary.NextID = itinerary.MaxID(p.Itinerary.Stops) + 1
	}
	if p.Search != nil {
		base.Search.SelectedSearchResult = p.Search.SelectedSearchResult
	}
	return base
}

func decodeData(escaped string) (Projection, error) {
	encoded, err := url.PathUnescape(escaped)
	if err != nil {
		return Projection{}, fmt.Errorf("unescaping data: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Projection{}, fmt.Errorf("decoding data: %w", err)
	}

	var p Projection
	if err := json.Unmarshal(raw, &p); err != nil {
		return Projection{}, fmt.Errorf("decoding projection: %w", err)
	}
	if err := p.validate(); err != nil {
		return Projection{}, err
	}
	return p, nil
}

func (p Projection) validate() error {
	if p.Itinerary != nil {
		seen := make(map[int]bool, len(p.Itinerary.Stops))
		for _, stop := range p.Itinerary.Stops {
			if stop.ID < 0 || seen[stop.ID] {
				return fmt.Errorf("invalid stop id %d", stop.ID)
			}
			seen[stop.ID] = true
			if err := validResult(stop.Item); err != nil {
				return err
			}
		}
	}
	if p.Search != nil {
		return validResult(p.Search.SelectedSearchResult)
	}
	return nil
}

func validResult(r *geocoding.Result) error {
	if r == nil {
		return nil
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("invalid result kind %q", r.Kind)
	}
	return nil
}

// truncate renders v with at most places decimals, dropping (not rounding)
// the rest, and trims trailing zeros.
func truncate(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		if len(s) > dot+1+places {
			s = s[:dot+1+places]
		}
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
