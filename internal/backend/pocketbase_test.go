package backend_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/backend"
	"eventhub/internal/status"
	_ "eventhub/migrations"
	"eventhub/models"
)

// memorySessions keeps sessions in a map instead of Redis.
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]backend.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]backend.Session{}}
}

func (m *memorySessions) Save(ctx context.Context, s *backend.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memorySessions) Load(ctx context.Context, sessionID string) (*backend.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memorySessions) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func setupTestApp(t *testing.T) core.App {
	t.Helper()

	app := core.NewBaseApp(core.BaseAppConfig{DataDir: t.TempDir()})
	require.NoError(t, app.Bootstrap())
	require.NoError(t, app.RunAllMigrations())
	t.Cleanup(func() {
		_ = app.ResetBootstrapState()
	})
	return app
}

func setupTestClient(t *testing.T) (*backend.PocketBaseClient, *memorySessions, core.App) {
	t.Helper()
	app := setupTestApp(t)
	sessions := newMemorySessions()
	return backend.NewPocketBaseClient(app, sessions), sessions, app
}

func createEvent(t *testing.T, app core.App, title, category string, price string, tickets int) string {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId(backend.EventsCollection)
	require.NoError(t, err)

	record := core.NewRecord(collection)
	record.Set("title", title)
	record.Set("date", "2025-03-01")
	record.Set("time", "18:30")
	record.Set("venue", "Hall A")
	record.Set("price", decimal.RequireFromString(price).InexactFloat64())
	record.Set("category", category)
	record.Set("available_tickets", tickets)
	require.NoError(t, app.Save(record))
	return record.Id
}

func createUser(t *testing.T, client *backend.PocketBaseClient, email string) string {
	t.Helper()
	identity, err := client.SignUp(context.Background(), email, "secret1", backend.ProfileMetadata{FullName: "A B", Role: models.RoleUser})
	require.NoError(t, err)
	return identity.ID
}

func TestPocketBaseClient_SignUpAndProfile(t *testing.T) {
	client, _, _ := setupTestClient(t)
	ctx := context.Background()

	identity, err := client.SignUp(ctx, "a@b.com", "secret1", backend.ProfileMetadata{FullName: "A B", Role: models.RoleUser})
	require.NoError(t, err)
	require.NotEmpty(t, identity.ID)

	err = client.InsertProfile(ctx, &models.User{
		ID:       identity.ID,
		Email:    "a@b.com",
		FullName: "A B",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)

	profile, err := client.GetProfile(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, profile.ID)
	assert.Equal(t, "A B", profile.FullName)
	assert.Equal(t, models.RoleUser, profile.Role)

	stored, err := client.GetIdentity(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", stored.Email)
	assert.Equal(t, "A B", stored.Metadata.FullName)

	_, err = client.SignUp(ctx, "a@b.com", "secret2", backend.ProfileMetadata{FullName: "Other"})
	assert.Error(t, err)
}

func TestPocketBaseClient_GetProfileNotFound(t *testing.T) {
	client, _, _ := setupTestClient(t)
	id := createUser(t, client, "a@b.com")

	_, err := client.GetProfile(context.Background(), id)

	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestPocketBaseClient_SignInWithPassword(t *testing.T) {
	client, sessions, _ := setupTestClient(t)
	ctx := context.Background()
	userID := createUser(t, client, "a@b.com")

	var events []*backend.SessionChangeEvent
	client.OnSessionChange().BindFunc(func(e *backend.SessionChangeEvent) error {
		events = append(events, e)
		return e.Next()
	})

	_, err := client.SignInWithPassword(ctx, "sess-1", "a@b.com", "wrong-password")
	assert.ErrorIs(t, err, status.ErrInvalidCredentials)

	_, err = client.SignInWithPassword(ctx, "sess-1", "nobody@b.com", "secret1")
	assert.ErrorIs(t, err, status.ErrInvalidCredentials)
	assert.Empty(t, events)

	session, err := client.SignInWithPassword(ctx, "sess-1", "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
	assert.NotEmpty(t, session.Token)

	stored, err := sessions.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, userID, stored.UserID)

	require.Len(t, events, 1)
	assert.Equal(t, backend.SessionSignedIn, events[0].Kind)
	assert.Equal(t, userID, events[0].Session.UserID)
}

func TestPocketBaseClient_RefreshSession(t *testing.T) {
	client, sessions, _ := setupTestClient(t)
	ctx := context.Background()
	userID := createUser(t, client, "a@b.com")

	_, err := client.SignInWithPassword(ctx, "sess-1", "a@b.com", "secret1")
	require.NoError(t, err)

	var last *backend.SessionChangeEvent
	client.OnSessionChange().BindFunc(func(e *backend.SessionChangeEvent) error {
		last = e
		return e.Next()
	})

	session, err := client.RefreshSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, backend.SessionRefreshed, last.Kind)

	// the stored session expired
	require.NoError(t, sessions.Delete(ctx, "sess-1"))

	session, err = client.RefreshSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Equal(t, backend.SessionRestored, last.Kind)
	assert.Nil(t, last.Session)
}

func TestPocketBaseClient_RefreshSessionDropsInvalidToken(t *testing.T) {
	client, sessions, _ := setupTestClient(t)
	ctx := context.Background()
	userID := createUser(t, client, "a@b.com")

	require.NoError(t, sessions.Save(ctx, &backend.Session{ID: "sess-1", UserID: userID, Token: "not-a-token"}))

	session, err := client.RefreshSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, session)

	stored, err := sessions.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestPocketBaseClient_SignOut(t *testing.T) {
	client, sessions, _ := setupTestClient(t)
	ctx := context.Background()
	createUser(t, client, "a@b.com")

	_, err := client.SignInWithPassword(ctx, "sess-1", "a@b.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, client.SignOut(ctx, "sess-1"))

	stored, err := sessions.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestPocketBaseClient_ListEventsFilter(t *testing.T) {
	client, _, app := setupTestClient(t)
	ctx := context.Background()

	createEvent(t, app, "Jazz Night", "concert", "35", 50)
	createEvent(t, app, "Rock Fest", "concert", "60", 100)
	createEvent(t, app, "Go Workshop", "workshop", "20", 10)

	tests := []struct {
		name     string
		filter   models.EventFilter
		expected int
	}{
		{"no filter", models.EventFilter{}, 3},
		{"title is case-insensitive", models.EventFilter{Search: "JAZZ"}, 1},
		{"title substring", models.EventFilter{Search: "o"}, 2},
		{"category is case-sensitive", models.EventFilter{Category: "Concert"}, 0},
		{"category", models.EventFilter{Category: "concert"}, 2},
		{"title and category", models.EventFilter{Search: "o", Category: "workshop"}, 1},
		{"no match", models.EventFilter{Search: "opera"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := client.ListEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, events, tt.expected)
		})
	}
}

func TestPocketBaseClient_GetEvent(t *testing.T) {
	client, _, app := setupTestClient(t)
	ctx := context.Background()

	id := createEvent(t, app, "Jazz Night", "concert", "35.50", 50)

	event, err := client.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", event.Title)
	assert.True(t, decimal.RequireFromString("35.50").Equal(event.Price))
	assert.Equal(t, 50, event.AvailableTickets)

	_, err = client.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestPocketBaseClient_InsertBookingPreventsOverbooking(t *testing.T) {
	client, _, app := setupTestClient(t)
	ctx := context.Background()

	userID := createUser(t, client, "a@b.com")
	eventID := createEvent(t, app, "Go Conf", "conference", "19.99", 5)

	book := func(quantity int) (*models.Booking, error) {
		booking := &models.Booking{
			EventID:    eventID,
			UserID:     userID,
			Quantity:   quantity,
			TotalPrice: models.TotalPrice(decimal.RequireFromString("19.99"), quantity),
			Status:     models.BookingStatusPending,
		}
		return booking, client.InsertBooking(ctx, booking)
	}

	first, err := book(3)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = book(1)
	require.NoError(t, err)

	_, err = book(2)
	assert.ErrorIs(t, err, status.ErrSoldOut)

	event, err := client.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, event.AvailableTickets)

	bookings, err := client.ListBookingsWithEvents(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestPocketBaseClient_ListBookingsWithEventsNewestFirst(t *testing.T) {
	client, _, app := setupTestClient(t)
	ctx := context.Background()

	userID := createUser(t, client, "a@b.com")
	otherID := createUser(t, client, "c@d.com")
	jazz := createEvent(t, app, "Jazz Night", "concert", "35", 50)
	conf := createEvent(t, app, "Go Conf", "conference", "19.99", 50)

	insert := func(user, event string, quantity int) {
		booking := &models.Booking{
			EventID:    event,
			UserID:     user,
			Quantity:   quantity,
			TotalPrice: decimal.NewFromInt(int64(quantity)),
			Status:     models.BookingStatusPending,
		}
		require.NoError(t, client.InsertBooking(ctx, booking))
		// created has millisecond resolution
		time.Sleep(5 * time.Millisecond)
	}

	insert(userID, jazz, 1)
	insert(otherID, jazz, 4)
	insert(userID, conf, 2)

	bookings, err := client.ListBookingsWithEvents(ctx, userID)
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	assert.Equal(t, "Go Conf", bookings[0].Event.Title)
	assert.Equal(t, 2, bookings[0].Quantity)
	assert.Equal(t, "Jazz Night", bookings[1].Event.Title)
	assert.Equal(t, models.BookingStatusPending, bookings[1].Status)
	assert.True(t, bookings[0].CreatedAt.After(bookings[1].CreatedAt))

	none, err := client.ListBookingsWithEvents(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
