package models

import "encoding/json"

// Response is the backend's JSON envelope.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Ack is an envelope whose data is passed through undecoded (test results,
// sync summaries, deletions).
type Ack = Response[json.RawMessage]
