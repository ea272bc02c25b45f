package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/clumsy/internal/trace"
)

// marshalEvent converts an event to canonical JSON TEXT for storage.
func marshalEvent(e trace.Event) (string, error) {
	data, err := e.Canonical()
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(data), nil
}

// unmarshalEvent parses a stored payload back into an event.
// Payloads hold no floats, so plain decoding loses nothing.
func unmarshalEvent(data string) (trace.Event, error) {
	var e trace.Event
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return trace.Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if !e.Kind.Valid() {
		return trace.Event{}, fmt.Errorf("unmarshal event: unknown kind %q", e.Kind)
	}
	return e, nil
}
