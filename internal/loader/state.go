package loader

import (
	"time"

	"github.com/junkliveoz/FriendBook/internal/models"
)

// Status is the discriminator of a Snapshot.
type Status int

const (
	// StatusIdle means no load was requested yet.
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Snapshot is the loader state at one instant. Snapshots are never mutated
// once published.
type Snapshot struct {
	Status Status

	// Users is the collection of the last successful load, in payload
	// order. Loading and Failed snapshots carry it over; it is nil until a
	// load succeeds.
	Users []models.User

	// Message is set for StatusFailed only.
	Message string

	// Stale reports that Users belong to an earlier attempt.
	Stale bool

	Attempt   uint64
	UpdatedAt time.Time
}
