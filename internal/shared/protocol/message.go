package protocol

import "pooledlist/internal/shared/pool"

// Error codes sent in ErrorMessage
const (
	CodeBadFrame   = "bad_frame"
	CodeNotBound   = "not_bound"
	CodeBadRequest = "bad_request"
	CodeInternal   = "internal"
	CodeBusy       = "busy"
)

// BindRequest attaches a synthetic list of Count items to the session's view
type BindRequest struct {
	Count          int     `msgpack:"count"`
	ElementExtent  float64 `msgpack:"element_extent"`
	ViewportExtent float64 `msgpack:"viewport_extent"`
	Snap           string  `msgpack:"snap,omitempty"`
	// Scroll is the initial normalized position, 1 at the top. Nil keeps the current one.
	Scroll *float64 `msgpack:"scroll,omitempty"`
}

// ScrollRequest moves the view to a normalized position
type ScrollRequest struct {
	Value float64 `msgpack:"value"`
}

// ResizeRequest changes the list length and optionally the viewport
type ResizeRequest struct {
	Count          int     `msgpack:"count"`
	ViewportExtent float64 `msgpack:"viewport_extent,omitempty"`
}

// Row is one bound instance as seen by the client
type Row struct {
	Index int    `msgpack:"index"`
	Name  string `msgpack:"name"`
	Label string `msgpack:"label"`
}

// WindowMessage reports the materialized window after a recompute
type WindowMessage struct {
	Start    int     `msgpack:"start"`
	End      int     `msgpack:"end"`
	Count    int     `msgpack:"count"`
	Leading  float64 `msgpack:"leading"`
	Trailing float64 `msgpack:"trailing"`
	Scroll   float64 `msgpack:"scroll"`
	Rows     []Row   `msgpack:"rows"`
}

// StatsMessage is the registry snapshot
type StatsMessage struct {
	Types []pool.TypeStats `msgpack:"types"`
}

// ErrorMessage contains error information
type ErrorMessage struct {
	Code    string `msgpack:"code"`
	Message string `msgpack:"message"`
}

// Error implements error so a decoded reply can be returned directly
func (e *ErrorMessage) Error() string {
	return e.Code + ": " + e.Message
}
