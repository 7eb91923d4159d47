// Package polyline encodes and decodes geometries in Google's encoded polyline
// format (precision 5), the format route solvers and geocoders hand back.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"math"

	"github.com/breatheroute/planner/internal/geo"
)

const precision = 1e5

// Decode decodes a polyline-encoded string into points.
// A truncated trailing value is dropped rather than reported.
func Decode(encoded string) []geo.Point {
	if encoded == "" {
		return nil
	}

	var points []geo.Point
	index := 0
	lat := 0
	lon := 0

	for index < len(encoded) {
		latDelta, next, ok := decodeValue(encoded, index)
		if !ok {
			break
		}
		lonDelta, next, ok := decodeValue(encoded, next)
		if !ok {
			break
		}
		index = next
		lat += latDelta
		lon += lonDelta

		points = append(points, geo.Point{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
	}

	return points
}

// decodeValue reads one zig-zag encoded delta starting at index.
func decodeValue(encoded string, index int) (int, int, bool) {
	shift := 0
	result := 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), index, true
			}
			return result >> 1, index, true
		}
	}

	return 0, index, false
}

// Encode encodes points into a polyline string.
func Encode(points []geo.Point) string {
	if len(points) == 0 {
		return ""
	}

	encoded := make([]byte, 0, len(points)*4)
	prevLat := 0
	prevLon := 0

	for _, p := range points {
		lat := int(math.Round(p.Lat * precision))
		lon := int(math.Round(p.Lon * precision))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(encoded)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

// Length returns the haversine length of the line in meters.
func Length(points []geo.Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += haversine(points[i-1], points[i])
	}
	return total
}

// Midpoint returns the point halfway along the line, interpolating inside the
// segment that crosses the half-length mark. A single point is its own midpoint.
func Midpoint(points []geo.Point) (geo.Point, bool) {
	switch len(points) {
	case 0:
		return geo.Point{}, false
	case 1:
		return points[0], true
	}

	half := Length(points) / 2
	walked := 0.0
	for i := 1; i < len(points); i++ {
		seg := haversine(points[i-1], points[i])
		if seg > 0 && walked+seg >= half {
			f := (half - walked) / seg
			return geo.Point{
				Lat: points[i-1].Lat + f*(points[i].Lat-points[i-1].Lat),
				Lon: points[i-1].Lon + f*(points[i].Lon-points[i-1].Lon),
			}, true
		}
		walked += seg
	}
	return points[0], true
}

const earthRadiusMeters = 6371000

func haversine(a, b geo.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
