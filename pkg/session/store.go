package session

import (
	"context"
	"time"
)

// Store persists encoded session records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save writes the record for sessionID, replacing any previous one.
	Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error

	// Load returns (nil, nil) when the session is unknown or expired.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Touch extends a session without rewriting it.
	Touch(ctx context.Context, sessionID string, expiresAt time.Time) error

	// Close releases the store's resources.
	Close() error
}

// ErrStoreClosed is returned when a closed store is used.
type ErrStoreClosed struct{}

func (e ErrStoreClosed) Error() string {
	return "session store is closed"
}
