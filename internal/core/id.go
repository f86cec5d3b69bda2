package core

import "github.com/google/uuid"

// NewID returns a random UUID string used as a stable task or firing identifier.
func NewID() string {
	return uuid.NewString()
}
