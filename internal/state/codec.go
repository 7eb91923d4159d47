package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

type decoder func(raw []byte) (Action, error)

func decodeAs[T Action]() decoder {
	return func(raw []byte) (Action, error) {
		var a T
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return a, nil
	}
}

func decodeFailure(build func(error) Action) decoder {
	return func(raw []byte) (Action, error) {
		var p failurePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return build(errors.New(p.Error)), nil
	}
}

type failurePayload struct {
	Error string `json:"error"`
}

var registry = map[Type]decoder{
	TypeNavigate:                  decodeAs[Navigate](),
	TypeSetMapViewport:            decodeAs[SetMapViewport](),
	TypeSetTheme:                  decodeAs[SetTheme](),
	TypeAddItineraryPoint:         decodeAs[AddItineraryPoint](),
	TypeUpdateItineraryPoint:      decodeAs[UpdateItineraryPoint](),
	TypeRemoveItineraryPoint:      decodeAs[RemoveItineraryPoint](),
	TypeMoveItineraryPoint:        decodeAs[MoveItineraryPoint](),
	TypeResetItinerary:            decodeAs[ResetItinerary](),
	TypeSelectRoute:               decodeAs[SelectRoute](),
	TypeFetchRoutes:               decodeAs[FetchRoutes](),
	TypeFetchRoutesSuccess:        decodeAs[FetchRoutesSuccess](),
	TypeFetchRoutesFailure:        decodeFailure(func(err error) Action { return FetchRoutesFailure{Err: err} }),
	TypeSearch:                    decodeAs[StartSearch](),
	TypeSearchSuccess:             decodeAs[SearchSuccess](),
	TypeSearchFailure:             decodeFailure(func(err error) Action { return SearchFailure{Err: err} }),
	TypeSelectSearchResult:        decodeAs[SelectSearchResult](),
	TypeClearSearch:               decodeAs[ClearSearch](),
	TypeReverseGeocode:            decodeAs[ReverseGeocode](),
	TypeReverseGeocodeSuccess:     decodeAs[ReverseGeocodeSuccess](),
	TypeReverseGeocodeFailure:     decodeFailure(func(err error) Action { return ReverseGeocodeFailure{Err: err} }),
	TypeFetchLeisureRoutes:        decodeAs[FetchLeisureRoutes](),
	TypeFetchLeisureRoutesSuccess: decodeAs[FetchLeisureRoutesSuccess](),
	TypeFetchLeisureRoutesFailure: decodeFailure(func(err error) Action { return FetchLeisureRoutesFailure{Err: err} }),
	TypeSelectLeisureRoute:        decodeAs[SelectLeisureRoute](),
	TypeRestoreState:              decodeAs[RestoreState](),
}

// Known reports whether t is a registered action type.
func Known(t Type) bool {
	_, ok := registry[t]
	return ok
}

// Types returns every registered action type.
func Types() []Type {
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// Marshal encodes a as a flat JSON object whose "type" member holds the tag.
// Failure actions encode their error as its message.
func Marshal(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnknownAction)
	}

	var payload any = a
	if f, ok := a.(Failure); ok {
		payload = failurePayload{Error: errorText(f.Cause())}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", a.Type(), err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", a.Type(), err)
	}
	tag, _ := json.Marshal(a.Type())
	fields["type"] = tag

	return json.Marshal(fields)
}

// Unmarshal decodes an action produced by Marshal. Unknown or missing type
// tags yield ErrUnknownAction.
func Unmarshal(data []byte) (Action, error) {
	var envelope struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding action: %w", err)
	}

	decode, ok := registry[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, envelope.Type)
	}

	a, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", envelope.Type, err)
	}
	return a, nil
}
