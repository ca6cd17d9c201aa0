// Package auth holds the signed-in profile of every browser session.
//
// The Store is the only writer of that state: it is driven by the backend's
// session-change notifications and hands out value snapshots to views.
// Each notification takes a sequence number and a profile fetch is applied
// only while its number is still the newest for the session, so a slow
// fetch can never overwrite the result of a later sign-in or sign-out.
//
// A cached user is trusted for the revalidation interval only; after that the
// next Snapshot asks the backend again, so an expired or deleted backend
// session signs the browser out. Prune drops entries nobody asked for within
// the interval.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eventhub/internal/backend"
	"eventhub/internal/routes"
	"eventhub/internal/status"
	"eventhub/models"
)

// DefaultRevalidateInterval is used when NewStore is given no interval.
const DefaultRevalidateInterval = time.Minute

type entry struct {
	seq       uint64
	user      *models.User
	validated time.Time // last time the backend confirmed the session
	touched   time.Time
}

type Store struct {
	backend    backend.Client
	hookID     string
	revalidate time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	seq     uint64
	entries map[string]*entry
}

// NewStore creates a store subscribed to client's session changes. Cached
// users are checked against the backend again once older than revalidate.
func NewStore(client backend.Client, revalidate time.Duration) *Store {
	if revalidate <= 0 {
		revalidate = DefaultRevalidateInterval
	}
	s := &Store{
		backend:    client,
		revalidate: revalidate,
		now:        time.Now,
		entries:    make(map[string]*entry),
	}
	s.hookID = client.OnSessionChange().BindFunc(s.handleSessionChange)
	return s
}

// Close unsubscribes the store from session changes.
func (s *Store) Close() {
	s.backend.OnSessionChange().Unbind(s.hookID)
}

// SignIn checks the credentials with the backend and returns the route to
// continue to.
func (s *Store) SignIn(ctx context.Context, sessionID, email, password string) (string, error) {
	if _, err := s.backend.SignInWithPassword(ctx, sessionID, strings.TrimSpace(email), password); err != nil {
		return "", err
	}
	return routes.Dashboard, nil
}

// SignUp creates the auth identity and then its profile row. A failed
// profile insert is reported as a failed sign-up; the identity stays and its
// profile is recreated on the first sign-in.
func (s *Store) SignUp(ctx context.Context, email, password, fullName string) (string, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	identity, err := s.backend.SignUp(ctx, email, password, backend.ProfileMetadata{
		FullName: fullName,
		Role:     models.RoleUser,
	})
	if err != nil {
		return "", err
	}

	profile := &models.User{
		ID:       identity.ID,
		Email:    email,
		FullName: fullName,
		Role:     models.RoleUser,
	}
	if err := s.backend.InsertProfile(ctx, profile); err != nil {
		slog.Error("Profile insert failed after sign-up", "user_id", identity.ID, "error", err)
		return "", fmt.Errorf("create profile: %w", err)
	}

	return routes.SignIn, nil
}

// SignOut ends the backend session and returns the route to continue to.
func (s *Store) SignOut(ctx context.Context, sessionID string) (string, error) {
	if err := s.backend.SignOut(ctx, sessionID); err != nil {
		return "", err
	}
	return routes.Home, nil
}

// Snapshot returns the session's current user. Sessions this process has not
// seen yet, or has not confirmed within the revalidation interval, are
// refreshed from the backend first. A failed refresh yields an anonymous
// snapshot.
func (s *Store) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	if snap, ok := s.lookup(sessionID); ok {
		return snap, nil
	}

	if _, err := s.backend.RefreshSession(ctx, sessionID); err != nil {
		return Snapshot{SessionID: sessionID}, err
	}

	snap, _ := s.lookup(sessionID)
	return snap, nil
}

// Prune drops entries not used or confirmed within the revalidation
// interval. They are restored from the backend on their next request.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.revalidate)
	n := 0
	for id, e := range s.entries {
		if e.touched.Before(cutoff) && e.validated.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Run prunes the store every revalidation interval until ctx is done.
func (s *Store) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.revalidate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				slog.Debug("Pruned idle sessions", "count", n)
			}
		}
	}
}

// Count returns the number of signed-in sessions held in memory.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.user != nil {
			n++
		}
	}
	return n
}

// lookup returns the cached user while it is still within the revalidation
// interval.
func (s *Store) lookup(sessionID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{SessionID: sessionID}
	e, ok := s.entries[sessionID]
	if !ok || e.user == nil {
		return snap, false
	}
	now := s.now()
	if now.Sub(e.validated) >= s.revalidate {
		return snap, false
	}
	e.touched = now
	user := *e.user
	snap.User = &user
	return snap, true
}

// begin registers a new notification for the session and returns its number.
func (s *Store) begin(sessionID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	e, ok := s.entries[sessionID]
	if !ok {
		e = &entry{}
		s.entries[sessionID] = e
	}
	e.seq = s.seq
	e.touched = s.now()
	return s.seq
}

// commit stores the outcome of notification seq unless a newer one started.
func (s *Store) commit(sessionID string, seq uint64, user *models.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok || e.seq != seq {
		return false
	}
	if user == nil {
		delete(s.entries, sessionID)
		return true
	}
	e.user = user
	e.validated = s.now()
	return true
}

func (s *Store) handleSessionChange(e *backend.SessionChangeEvent) error {
	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}

	seq := s.begin(e.SessionID)

	var user *models.User
	if e.Session != nil {
		profile, err := s.loadProfile(ctx, e.Session)
		if err != nil {
			slog.Error("Failed to load profile", "session_id", e.SessionID, "user_id", e.Session.UserID, "kind", e.Kind, "error", err)
		}
		user = profile
	}

	if !s.commit(e.SessionID, seq, user) {
		slog.Debug("Dropped stale session change", "session_id", e.SessionID, "kind", e.Kind, "seq", seq)
	}

	return e.Next()
}

// loadProfile fetches the profile row of the session's identity, inserting
// it from the identity metadata when an earlier sign-up failed to.
func (s *Store) loadProfile(ctx context.Context, session *backend.Session) (*models.User, error) {
	profile, err := s.backend.GetProfile(ctx, session.UserID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, status.ErrNotFound) {
		return nil, err
	}

	identity, err := s.backend.GetIdentity(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", status.ErrProfileMissing, err)
	}

	role := identity.Metadata.Role
	if role == "" {
		role = models.RoleUser
	}
	profile = &models.User{
		ID:       identity.ID,
		Email:    identity.Email,
		FullName: identity.Metadata.FullName,
		Role:     role,
	}
	if err := s.backend.InsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: %w", status.ErrProfileMissing, err)
	}

	slog.Info("Recreated missing profile", "user_id", profile.ID)
	return profile, nil
}
