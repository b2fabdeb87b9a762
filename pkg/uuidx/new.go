// Package uuidx generates the time-ordered ids used for sessions and runs.
package uuidx

import "github.com/google/uuid"

// New returns a version 7 UUID. It panics if the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns New as a string.
func NewString() string {
	return New().String()
}

// Valid reports whether s is a version 7 UUID.
func Valid(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.Version() == 7
}
