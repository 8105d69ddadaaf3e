// Package slogx provides small helpers for building log/slog attributes.
package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr with the key "error" and the error's message as
// the value.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer returns a slog.Attr holding the string representation of the
// provided fmt.Stringer.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// EntityID returns a slog.Attr identifying the entity a log line refers to.
func EntityID(id string) slog.Attr {
	return slog.String("entity_id", id)
}

// BatchSize returns a slog.Attr for the number of events in a tracker batch.
func BatchSize(n int) slog.Attr {
	return slog.Int("batch_size", n)
}
