package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"eventhub/internal/status"
	"eventhub/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"
)

// PocketBaseClient implements Client on top of a PocketBase app: the users
// auth collection is the identity store and the profiles, events and bookings
// base collections are the tables.
type PocketBaseClient struct {
	app      core.App
	sessions SessionStorage
	changes  *hook.Hook[*SessionChangeEvent]
}

func NewPocketBaseClient(app core.App, sessions SessionStorage) *PocketBaseClient {
	return &PocketBaseClient{
		app:      app,
		sessions: sessions,
		changes:  &hook.Hook[*SessionChangeEvent]{},
	}
}

func (c *PocketBaseClient) OnSessionChange() *hook.Hook[*SessionChangeEvent] {
	return c.changes
}

func (c *PocketBaseClient) notify(ctx context.Context, kind SessionChangeKind, sessionID string, session *Session) {
	err := c.changes.Trigger(&SessionChangeEvent{
		Context:   ctx,
		Kind:      kind,
		SessionID: sessionID,
		Session:   session,
	})
	if err != nil {
		slog.Error("Session change handler failed", "kind", kind, "session_id", sessionID, "error", err)
	}
}

func (c *PocketBaseClient) SignInWithPassword(ctx context.Context, sessionID, email, password string) (*Session, error) {
	record, err := c.app.FindAuthRecordByEmail(UsersCollection, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if !record.ValidatePassword(password) {
		return nil, status.ErrInvalidCredentials
	}

	session, err := c.issueSession(ctx, sessionID, record)
	if err != nil {
		return nil, err
	}

	c.notify(ctx, SessionSignedIn, sessionID, session)
	return session, nil
}

func (c *PocketBaseClient) issueSession(ctx context.Context, sessionID string, record *core.Record) (*Session, error) {
	token, err := record.NewAuthToken()
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	session := &Session{
		ID:     sessionID,
		UserID: record.Id,
		Email:  record.Email(),
		Token:  token,
	}
	if err := c.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (c *PocketBaseClient) SignUp(ctx context.Context, email, password string, meta ProfileMetadata) (*Identity, error) {
	collection, err := c.app.FindCollectionByNameOrId(UsersCollection)
	if err != nil {
		return nil, fmt.Errorf("find users collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.SetEmail(email)
	record.SetPassword(password)
	record.Set("name", meta.FullName)

	if err := c.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	return &Identity{ID: record.Id, Email: record.Email(), Metadata: meta}, nil
}

func (c *PocketBaseClient) SignOut(ctx context.Context, sessionID string) error {
	if err := c.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	c.notify(ctx, SessionSignedOut, sessionID, nil)
	return nil
}

func (c *PocketBaseClient) RefreshSession(ctx context.Context, sessionID string) (*Session, error) {
	stored, err := c.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		c.notify(ctx, SessionRestored, sessionID, nil)
		return nil, nil
	}

	record, err := c.app.FindAuthRecordByToken(stored.Token, core.TokenTypeAuth)
	if err != nil {
		slog.Info("Dropping expired session", "session_id", sessionID, "user_id", stored.UserID)
		if err := c.sessions.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		c.notify(ctx, SessionRestored, sessionID, nil)
		return nil, nil
	}

	session, err := c.issueSession(ctx, sessionID, record)
	if err != nil {
		return nil, err
	}

	c.notify(ctx, SessionRefreshed, sessionID, session)
	return session, nil
}

func (c *PocketBaseClient) GetIdentity(ctx context.Context, id string) (*Identity, error) {
	record, err := c.app.FindRecordById(UsersCollection, id)
	if err != nil {
		return nil, notFound("identity", err)
	}
	return &Identity{
		ID:    record.Id,
		Email: record.Email(),
		Metadata: ProfileMetadata{
			FullName: record.GetString("name"),
			Role:     models.RoleUser,
		},
	}, nil
}

func (c *PocketBaseClient) GetProfile(ctx context.Context, id string) (*models.User, error) {
	record, err := c.app.FindRecordById(ProfilesCollection, id)
	if err != nil {
		return nil, notFound("profile", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return profileFromRecord(record), nil
}

func (c *PocketBaseClient) InsertProfile(ctx context.Context, user *models.User) error {
	collection, err := c.app.FindCollectionByNameOrId(ProfilesCollection)
	if err != nil {
		return fmt.Errorf("find profiles collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Id = user.ID
	record.Set("email", user.Email)
	record.Set("full_name", user.FullName)
	record.Set("avatar_url", user.AvatarURL)
	record.Set("role", string(user.Role))

	if err := c.app.SaveWithContext(ctx, record); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (c *PocketBaseClient) ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, error) {
	query := c.app.RecordQuery(EventsCollection).WithContext(ctx)
	for _, expr := range eventFilterExpressions(filter) {
		query.AndWhere(expr)
	}

	records := []*core.Record{}
	if err := query.All(&records); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]*models.Event, 0, len(records))
	for _, r := range records {
		events = append(events, eventFromRecord(r))
	}
	return events, nil
}

func (c *PocketBaseClient) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	record, err := c.app.FindRecordById(EventsCollection, id)
	if err != nil {
		return nil, notFound("event", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return eventFromRecord(record), nil
}

func (c *PocketBaseClient) InsertBooking(ctx context.Context, booking *models.Booking) error {
	return c.app.RunInTransaction(func(txApp core.App) error {
		res, err := txApp.DB().NewQuery(
			"UPDATE {{events}} SET [[available_tickets]] = [[available_tickets]] - {:quantity} " +
				"WHERE [[id]] = {:id} AND [[available_tickets]] >= {:quantity}",
		).WithContext(ctx).Bind(dbx.Params{
			"id":       booking.EventID,
			"quantity": booking.Quantity,
		}).Execute()
		if err != nil {
			return fmt.Errorf("reserve tickets: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("reserve tickets: %w", err)
		} else if n == 0 {
			return status.ErrSoldOut
		}

		collection, err := txApp.FindCollectionByNameOrId(BookingsCollection)
		if err != nil {
			return fmt.Errorf("find bookings collection: %w", err)
		}

		record := core.NewRecord(collection)
		record.Set("event", booking.EventID)
		record.Set("user", booking.UserID)
		record.Set("quantity", booking.Quantity)
		record.Set("total_price", booking.TotalPrice.InexactFloat64())
		record.Set("status", string(booking.Status))
		record.Set("payment_intent_id", booking.PaymentIntentID)

		if err := txApp.SaveWithContext(ctx, record); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		booking.ID = record.Id
		booking.CreatedAt = record.GetDateTime("created").Time()
		return nil
	})
}

func (c *PocketBaseClient) ListBookingsWithEvents(ctx context.Context, userID string) ([]*models.BookingWithEvent, error) {
	records, err := c.app.FindRecordsByFilter(
		BookingsCollection,
		"user = {:userId}",
		"-created",
		0,
		0,
		dbx.Params{"userId": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	if errs := c.app.ExpandRecords(records, []string{"event"}, nil); len(errs) > 0 {
		for path, err := range errs {
			return nil, fmt.Errorf("expand %s: %w", path, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]*models.BookingWithEvent, 0, len(records))
	for _, r := range records {
		item := &models.BookingWithEvent{Booking: *bookingFromRecord(r)}
		if event := r.ExpandedOne("event"); event != nil {
			item.Event = *eventFromRecord(event)
		}
		result = append(result, item)
	}
	return result, nil
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, status.ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}
