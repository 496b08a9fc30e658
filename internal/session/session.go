// Package session keeps per-visitor state between requests. The only state
// held is the result of the last eligibility check.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State is what one session remembers.
type State struct {
	Eligible  bool      `json:"eligible"`
	Reason    string    `json:"reason,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Store persists session state for the lifetime of a session.
type Store interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Set(ctx context.Context, id string, state State) error
	Delete(ctx context.Context, id string) error
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id issued by NewID.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
