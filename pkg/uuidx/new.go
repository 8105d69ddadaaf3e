// Package uuidx wraps UUID generation so the rest of the SDK does not care
// about versions or error handling.
package uuidx

import (
	"github.com/google/uuid"

	"github.com/loopline-ai/loopline-go/pkg/stdx"
)

// New generates a new v7 UUID. It panics if generation fails.
func New() uuid.UUID {
	return stdx.Must1(uuid.NewV7())
}

// NewString generates a new v7 UUID and returns its string form.
func NewString() string {
	return New().String()
}
