package auth

import (
	"context"

	"eventhub/models"
)

// Snapshot is the read-only view of one browser session handed to views.
// User is a private copy and nil when nobody is signed in.
type Snapshot struct {
	SessionID string
	User      *models.User
}

func (s Snapshot) SignedIn() bool {
	return s.User != nil
}

type snapshotKey struct{}

// WithSnapshot attaches a session snapshot to a request context.
func WithSnapshot(ctx context.Context, s Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, s)
}

// FromContext returns the snapshot attached by WithSnapshot, or an anonymous
// snapshot when there is none.
func FromContext(ctx context.Context) Snapshot {
	s, _ := ctx.Value(snapshotKey{}).(Snapshot)
	return s
}
