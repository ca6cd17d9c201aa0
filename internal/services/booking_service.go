package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventhub/internal/auth"
	"eventhub/internal/backend"
	"eventhub/internal/status"
	"eventhub/models"
	"eventhub/monitoring"
)

type BookingRequest struct {
	EventID  string
	Quantity int
	Nonce    string
}

type BookingService struct {
	backend  backend.Client
	guard    *IdempotencyGuard
	notifier *NotificationService
	monitor  *monitoring.Monitor
}

func NewBookingService(client backend.Client, guard *IdempotencyGuard, notifier *NotificationService, monitor *monitoring.Monitor) *BookingService {
	return &BookingService{
		backend:  client,
		guard:    guard,
		notifier: notifier,
		monitor:  monitor,
	}
}

// NewNonce returns a nonce for a fresh booking form.
func (s *BookingService) NewNonce() string {
	return s.guard.NewNonce()
}

// CreateBooking inserts a pending booking for the signed-in user. Nothing is
// written unless the user is signed in and the quantity is in range.
func (s *BookingService) CreateBooking(ctx context.Context, snap auth.Snapshot, req BookingRequest) (*models.Booking, error) {
	if !snap.SignedIn() {
		s.monitor.TrackBooking("unauthenticated")
		return nil, status.ErrUnauthenticated
	}
	if !models.ValidQuantity(req.Quantity) {
		s.monitor.TrackBooking("invalid")
		return nil, fmt.Errorf("%w: %d", status.ErrInvalidQuantity, req.Quantity)
	}

	if req.Nonce != "" {
		claimed, err := s.guard.Claim(ctx, req.Nonce, snap.User.ID)
		if err != nil {
			// the ticket decrement is atomic, so a Redis outage only loses
			// replay protection
			slog.Warn("Booking nonce not checked", "user_id", snap.User.ID, "event_id", req.EventID, "error", err)
		} else if !claimed {
			s.monitor.TrackBooking("duplicate")
			return nil, status.ErrDuplicateSubmission
		}
	}

	event, err := s.backend.GetEvent(ctx, req.EventID)
	if err != nil {
		s.release(ctx, req.Nonce)
		s.monitor.TrackBooking("failed")
		return nil, fmt.Errorf("load event: %w", err)
	}

	booking := &models.Booking{
		EventID:    event.ID,
		UserID:     snap.User.ID,
		Quantity:   req.Quantity,
		TotalPrice: models.TotalPrice(event.Price, req.Quantity),
		Status:     models.BookingStatusPending,
	}
	if err := s.backend.InsertBooking(ctx, booking); err != nil {
		s.release(ctx, req.Nonce)
		if errors.Is(err, status.ErrSoldOut) {
			s.monitor.TrackBooking("sold_out")
		} else {
			s.monitor.TrackBooking("failed")
		}
		slog.Error("Failed to create booking", "user_id", snap.User.ID, "event_id", event.ID, "quantity", req.Quantity, "error", err)
		return nil, err
	}

	slog.Info("Booking created", "booking_id", booking.ID, "user_id", booking.UserID, "event_id", booking.EventID, "quantity", booking.Quantity, "total", booking.TotalPrice.StringFixed(2))
	s.monitor.TrackBooking("created")

	s.notifier.NotifyBookingCreated(ctx, booking, event)
	return booking, nil
}

// ListUserBookings returns the signed-in user's bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, snap auth.Snapshot) ([]*models.BookingWithEvent, error) {
	if !snap.SignedIn() {
		return nil, status.ErrUnauthenticated
	}
	return s.backend.ListBookingsWithEvents(ctx, snap.User.ID)
}

func (s *BookingService) release(ctx context.Context, nonce string) {
	if nonce == "" {
		return
	}
	if err := s.guard.Release(ctx, nonce); err != nil {
		slog.Warn("Failed to release booking nonce", "nonce", nonce, "error", err)
	}
}
