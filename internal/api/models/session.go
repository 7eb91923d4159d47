package models

import (
	"github.com/breatheroute/planner/internal/state"
)

// Session is the planner state with its canonical URL and history.
type Session struct {
	State   state.State `json:"state"`
	URL     string      `json:"url"`
	History *History    `json:"history,omitempty"`
}

// History is the session's navigable entries, oldest first.
type History struct {
	Entries []string `json:"entries"`
	Index   int      `json:"index"`
}

// SearchRequest is the body of POST /v1/session/search.
type SearchRequest struct {
	Query string           `json:"query"`
	Mode  state.SearchMode `json:"mode,omitempty"`
}

// Validate fills the default mode and reports invalid fields.
func (r *SearchRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Query == "" {
		errs = append(errs, FieldError{Field: "query", Message: "is required", Code: "REQUIRED"})
	}
	if r.Mode == "" {
		r.Mode = state.SearchPointsOfInterest
	}
	if !r.Mode.Valid() {
		errs = append(errs, FieldError{Field: "mode", Message: "must be poi or address", Code: "INVALID"})
	}
	return errs
}

// OpenRequest is the body of POST /v1/session/open.
type OpenRequest struct {
	URL string `json:"url"`
}

// Resolved is the result of decoding a planner URL without a session.
type Resolved struct {
	State state.State `json:"state"`
	URL   string      `json:"url"`
}
