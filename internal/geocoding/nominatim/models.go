package nominatim

import "encoding/json"

// place is a single entry of a Nominatim jsonv2 search or reverse response.
type place struct {
	PlaceID     int64    `json:"place_id"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	AddressType string   `json:"addresstype"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Importance  float64  `json:"importance"`
	Address     address  `json:"address"`
	GeoJSON     *geoJSON `json:"geojson,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type address struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	Suburb      string `json:"suburb"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	PostCode    string `json:"postcode"`
	Country     string `json:"country_code"`
}

// geoJSON keeps coordinates raw because their nesting depends on Type.
type geoJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// errorResponse is returned by /reverse when nothing is found.
type errorResponse struct {
	Error string `json:"error"`
}

// categoryHighway marks roads in Nominatim's classification.
const categoryHighway = "highway"
