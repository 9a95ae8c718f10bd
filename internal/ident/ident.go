// Package ident issues record identities.
package ident

import "github.com/google/uuid"

// New returns a time-ordered, collision-proof identity (UUIDv7).
// Lexical order of the result follows creation order at millisecond granularity.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// entropy source failure; a random v4 keeps uniqueness, only ordering is lost
		return uuid.New().String()
	}
	return id.String()
}
