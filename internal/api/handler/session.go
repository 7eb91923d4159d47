package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/api/models"
	"github.com/breatheroute/planner/internal/api/response"
	"github.com/breatheroute/planner/internal/command"
	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/routing"
	"github.com/breatheroute/planner/internal/session"
	"github.com/breatheroute/planner/internal/state"
	"github.com/breatheroute/planner/internal/urlcodec"
)

// ResolvePrefix is the path the resolve endpoint is mounted on.
const ResolvePrefix = "/v1/resolve"

// maxActionBytes bounds a dispatched action body.
const maxActionBytes = 1 << 20

// SessionHandler handles the planner session endpoints.
type SessionHandler struct {
	session *session.Session
	logger  zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(s *session.Session, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		session: s,
		logger:  logger,
	}
}

// GetSession handles GET /v1/session - current state, URL and history.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	entries, index := h.session.History()

	response.JSON(w, r, http.StatusOK, models.Session{
		State:   snap.State,
		URL:     snap.URL,
		History: &models.History{Entries: entries, Index: index},
	})
}

// Dispatch handles POST /v1/session/actions - apply one action.
// A route fetch triggered by an itinerary edit that fails is reported in
// the itinerary's error field, not as a failed request.
func (h *SessionHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBytes))
	if err != nil {
		response.BadRequest(w, r, "unable to read request body", nil)
		return
	}

	action, err := state.Unmarshal(body)
	if err != nil {
		if errors.Is(err, state.ErrUnknownAction) {
			response.UnknownAction(w, r, err.Error())
			return
		}
		response.BadRequest(w, r, "invalid action: "+err.Error(), nil)
		return
	}
	if !state.IsUserIntent(action.Type()) {
		response.UnknownAction(w, r, fmt.Sprintf("%s is produced by the planner and cannot be posted", action.Type()))
		return
	}

	snap, err := h.session.Dispatch(r.Context(), action)
	if err != nil {
		h.logger.Warn().Err(err).Str("action", string(action.Type())).Msg("action follow-up failed")
	}
	h.writeSnapshot(w, r, snap)
}

// Search handles POST /v1/session/search - forward geocoding search.
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var input models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid search request", errs)
		return
	}

	snap, err := h.session.Search(r.Context(), input.Mode, input.Query)
	if err != nil {
		h.writeEffectError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, snap)
}

// Reverse handles POST /v1/session/reverse - describe what lies at a point.
func (h *SessionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var input models.Point
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid point", errs)
		return
	}

	snap, err := h.session.Reverse(r.Context(), input.Geo())
	if err != nil {
		h.writeEffectError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, snap)
}

// Leisure handles POST /v1/session/leisure - load the curated routes.
func (h *SessionHandler) Leisure(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Leisure(r.Context())
	if err != nil {
		h.writeEffectError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, snap)
}

// Open handles POST /v1/session/open - navigate to a planner URL.
// Malformed links open the default state.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var input models.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.URL == "" {
		response.BadRequest(w, r, "url is required", []models.FieldError{
			{Field: "url", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	h.writeSnapshot(w, r, h.session.Open(input.URL))
}

// Back handles POST /v1/session/back - step back through history.
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.session.Back()
	if !ok {
		response.Conflict(w, r, "already at the first history entry")
		return
	}
	h.writeSnapshot(w, r, snap)
}

// Forward handles POST /v1/session/forward - step forward through history.
func (h *SessionHandler) Forward(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.session.Forward()
	if !ok {
		response.Conflict(w, r, "already at the last history entry")
		return
	}
	h.writeSnapshot(w, r, snap)
}

// Resolve handles GET /v1/resolve/* - decode a planner URL without opening
// it. The remainder of the escaped path is the planner URL.
func (h *SessionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	link := strings.TrimPrefix(r.URL.EscapedPath(), ResolvePrefix)
	if link == "" {
		link = "/"
	}

	s, err := session.Resolve(link)
	if err != nil {
		response.InvalidLink(w, r, err.Error())
		return
	}

	response.JSON(w, r, http.StatusOK, models.Resolved{
		State: s,
		URL:   urlcodec.Serialize(s),
	})
}

func (h *SessionHandler) writeSnapshot(w http.ResponseWriter, r *http.Request, snap session.Snapshot) {
	response.JSON(w, r, http.StatusOK, models.Session{
		State: snap.State,
		URL:   snap.URL,
	})
}

// writeEffectError maps a failed lookup to a problem response.
func (h *SessionHandler) writeEffectError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, geocoding.ErrRateLimitExceeded), errors.Is(err, routing.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, err.Error(), 0)
	case errors.Is(err, geocoding.ErrNoResults),
		errors.Is(err, routing.ErrNoRouteFound),
		errors.Is(err, leisure.ErrRouteNotFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, geocoding.ErrEmptyQuery),
		errors.Is(err, geo.ErrInvalidCoordinates),
		errors.Is(err, routing.ErrInvalidCoordinates),
		errors.Is(err, routing.ErrTooFewWaypoints):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, command.ErrNoCollaborator),
		errors.Is(err, geocoding.ErrProviderUnavailable),
		errors.Is(err, routing.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, err.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("lookup failed")
		response.BadGateway(w, r, "upstream lookup failed")
	}
}
