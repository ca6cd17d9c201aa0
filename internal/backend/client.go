// Package backend is the only way the web front-end talks to the
// backend-as-a-service: password auth, session-change notifications and the
// profiles, events and bookings tables.
package backend

import (
	"context"

	"eventhub/models"

	"github.com/pocketbase/pocketbase/tools/hook"
)

// SessionChangeKind names what caused a session-change notification.
type SessionChangeKind string

const (
	SessionSignedIn  SessionChangeKind = "signed_in"
	SessionSignedOut SessionChangeKind = "signed_out"
	SessionRefreshed SessionChangeKind = "token_refreshed"
	SessionRestored  SessionChangeKind = "initial_session"
)

// Session is an authenticated backend session bound to one browser session id.
type Session struct {
	ID     string
	UserID string
	Email  string
	Token  string
}

// ProfileMetadata travels with a new identity and seeds its profile row.
type ProfileMetadata struct {
	FullName string
	Role     models.Role
}

// Identity is an auth-service account, independent of its profile row.
type Identity struct {
	ID       string
	Email    string
	Metadata ProfileMetadata
}

// SessionChangeEvent is fired on sign-in, sign-out, token refresh and when a
// persisted session is restored. Session is nil when no one is signed in.
type SessionChangeEvent struct {
	hook.Event

	Context   context.Context
	Kind      SessionChangeKind
	SessionID string
	Session   *Session
}

// Client is the backend collaborator contract.
type Client interface {
	SignInWithPassword(ctx context.Context, sessionID, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, meta ProfileMetadata) (*Identity, error)
	SignOut(ctx context.Context, sessionID string) error
	// RefreshSession loads the persisted session for sessionID, re-issues its
	// token and fires SessionRefreshed, or SessionRestored with a nil session
	// when there is nothing valid to restore.
	RefreshSession(ctx context.Context, sessionID string) (*Session, error)
	OnSessionChange() *hook.Hook[*SessionChangeEvent]

	// GetIdentity returns the auth identity with its sign-up metadata.
	GetIdentity(ctx context.Context, id string) (*Identity, error)
	GetProfile(ctx context.Context, id string) (*models.User, error)
	InsertProfile(ctx context.Context, user *models.User) error

	ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)

	// InsertBooking stores the booking and takes its tickets from the event's
	// availability in one transaction. It fails with status.ErrSoldOut when
	// fewer than booking.Quantity tickets are left.
	InsertBooking(ctx context.Context, booking *models.Booking) error
	ListBookingsWithEvents(ctx context.Context, userID string) ([]*models.BookingWithEvent, error)
}
