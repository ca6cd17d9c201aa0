// Package backendtest provides an in-memory backend.Client for tests.
package backendtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"eventhub/internal/backend"
	"eventhub/internal/status"
	"eventhub/models"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/tools/hook"
)

type identity struct {
	backend.Identity
	password string
}

// Fake mirrors the PocketBase client's semantics over maps. Error fields
// make the matching operation fail once set.
type Fake struct {
	mu sync.Mutex

	identities map[string]*identity // by email
	sessions   map[string]*backend.Session
	profiles   map[string]*models.User
	events     map[string]*models.Event
	bookings   []*models.Booking
	changes    *hook.Hook[*backend.SessionChangeEvent]
	clock      time.Time

	ProfileInsertErr error
	ProfileGetErr    error
	ListEventsErr    error
	InsertBookingErr error
	ListBookingsErr  error

	InsertBookingCalls int
	ListBookingsCalls  int
	GetProfileCalls    int
}

func NewFake() *Fake {
	return &Fake{
		identities: map[string]*identity{},
		sessions:   map[string]*backend.Session{},
		profiles:   map[string]*models.User{},
		events:     map[string]*models.Event{},
		changes:    &hook.Hook[*backend.SessionChangeEvent]{},
		clock:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddEvent stores an event as the catalog would return it.
func (f *Fake) AddEvent(e models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[e.ID] = &e
}

// Bookings returns a copy of every stored booking.
func (f *Fake) Bookings() []models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Booking, 0, len(f.bookings))
	for _, b := range f.bookings {
		out = append(out, *b)
	}
	return out
}

// Profile returns the stored profile row, if any.
func (f *Fake) Profile(id string) (*models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// HasIdentity reports whether an auth identity exists for email.
func (f *Fake) HasIdentity(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.identities[email]
	return ok
}

// ExpireSession drops the stored session without a notification, as a TTL
// expiry in the session storage would.
func (f *Fake) ExpireSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
}

func (f *Fake) OnSessionChange() *hook.Hook[*backend.SessionChangeEvent] {
	return f.changes
}

// notify fires the session-change hook. Handler errors are dropped, as the
// real client only logs them.
func (f *Fake) notify(ctx context.Context, kind backend.SessionChangeKind, sessionID string, s *backend.Session) {
	_ = f.changes.Trigger(&backend.SessionChangeEvent{
		Context:   ctx,
		Kind:      kind,
		SessionID: sessionID,
		Session:   s,
	})
}

func (f *Fake) SignInWithPassword(ctx context.Context, sessionID, email, password string) (*backend.Session, error) {
	f.mu.Lock()
	id, ok := f.identities[email]
	if !ok || id.password != password {
		f.mu.Unlock()
		return nil, status.ErrInvalidCredentials
	}
	s := &backend.Session{ID: sessionID, UserID: id.ID, Email: email, Token: uuid.NewString()}
	f.sessions[sessionID] = s
	f.mu.Unlock()

	cp := *s
	f.notify(ctx, backend.SessionSignedIn, sessionID, &cp)
	return s, nil
}

func (f *Fake) SignUp(ctx context.Context, email, password string, meta backend.ProfileMetadata) (*backend.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.identities[email]; ok {
		return nil, fmt.Errorf("create identity: email %q already registered", email)
	}
	id := &identity{
		Identity: backend.Identity{ID: uuid.NewString(), Email: email, Metadata: meta},
		password: password,
	}
	f.identities[email] = id

	out := id.Identity
	return &out, nil
}

func (f *Fake) SignOut(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	delete(f.sessions, sessionID)
	f.mu.Unlock()

	f.notify(ctx, backend.SessionSignedOut, sessionID, nil)
	return nil
}

func (f *Fake) RefreshSession(ctx context.Context, sessionID string) (*backend.Session, error) {
	f.mu.Lock()
	s, ok := f.sessions[sessionID]
	if !ok {
		f.mu.Unlock()
		f.notify(ctx, backend.SessionRestored, sessionID, nil)
		return nil, nil
	}
	s.Token = uuid.NewString()
	cp := *s
	f.mu.Unlock()

	f.notify(ctx, backend.SessionRefreshed, sessionID, &cp)
	return &cp, nil
}

func (f *Fake) GetIdentity(ctx context.Context, id string) (*backend.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ident := range f.identities {
		if ident.ID == id {
			out := ident.Identity
			return &out, nil
		}
	}
	return nil, fmt.Errorf("identity: %w", status.ErrNotFound)
}

func (f *Fake) GetProfile(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetProfileCalls++

	if f.ProfileGetErr != nil {
		return nil, f.ProfileGetErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile: %w", status.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *Fake) InsertProfile(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ProfileInsertErr != nil {
		return f.ProfileInsertErr
	}
	if _, ok := f.profiles[user.ID]; ok {
		return fmt.Errorf("insert profile: duplicate id %q", user.ID)
	}
	cp := *user
	f.profiles[user.ID] = &cp
	return nil
}

func (f *Fake) ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListEventsErr != nil {
		return nil, f.ListEventsErr
	}

	out := []*models.Event{}
	search := strings.ToLower(filter.Search)
	for _, e := range f.events {
		if search != "" && !strings.Contains(strings.ToLower(e.Title), search) {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return nil, fmt.Errorf("event: %w", status.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (f *Fake) InsertBooking(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertBookingCalls++

	if f.InsertBookingErr != nil {
		return f.InsertBookingErr
	}
	e, ok := f.events[booking.EventID]
	if !ok || e.AvailableTickets < booking.Quantity {
		return status.ErrSoldOut
	}
	e.AvailableTickets -= booking.Quantity

	f.clock = f.clock.Add(time.Minute)
	booking.ID = uuid.NewString()
	booking.CreatedAt = f.clock

	cp := *booking
	f.bookings = append(f.bookings, &cp)
	return nil
}

func (f *Fake) ListBookingsWithEvents(ctx context.Context, userID string) ([]*models.BookingWithEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListBookingsCalls++

	if f.ListBookingsErr != nil {
		return nil, f.ListBookingsErr
	}

	out := []*models.BookingWithEvent{}
	for _, b := range f.bookings {
		if b.UserID != userID {
			continue
		}
		item := &models.BookingWithEvent{Booking: *b}
		if e, ok := f.events[b.EventID]; ok {
			item.Event = *e
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var _ backend.Client = (*Fake)(nil)
