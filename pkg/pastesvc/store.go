// Package pastesvc implements the paste store: clients POST a raw blob and
// get back a retrieval URL, then anyone with the URL can fetch the blob with
// its original content type until the retention window runs out.
package pastesvc

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a paste does not exist or has expired.
var ErrNotFound = errors.New("paste not found")

// Entry is one stored paste: the raw blob plus what is needed to serve it back.
type Entry struct {
	ID          string
	ContentType string
	Content     []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the retention window has passed at now. A zero
// ExpiresAt means the entry never expires.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Store persists paste entries keyed by ID.
type Store interface {
	Put(ctx context.Context, entry *Entry) error
	// Get returns ErrNotFound for unknown IDs and for entries past their
	// expiry, even when no purge has removed them yet.
	Get(ctx context.Context, id string) (*Entry, error)
	// Delete removes an entry. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
	// PurgeExpired removes every entry past its expiry and reports how many
	// were removed.
	PurgeExpired(ctx context.Context) (int, error)
}
