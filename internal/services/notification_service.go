package services

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
	"github.com/sony/gobreaker"

	"eventhub/models"
	"eventhub/monitoring"
	"eventhub/utils"
)

// Publisher sends a message on a realtime channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

// PubNubPublisher publishes through the PubNub REST API.
type PubNubPublisher struct {
	pn *pubnub.PubNub
}

// NewPubNubPublisher returns nil when no keys are configured.
func NewPubNubPublisher(publishKey, subscribeKey, secretKey string) *PubNubPublisher {
	if publishKey == "" || subscribeKey == "" {
		return nil
	}

	cfg := pubnub.NewConfigWithUserId(pubnub.UserId("eventhub-server"))
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	cfg.SecretKey = secretKey

	return &PubNubPublisher{pn: pubnub.NewPubNub(cfg)}
}

func (p *PubNubPublisher) Publish(ctx context.Context, channel string, message any) error {
	_, status, err := p.pn.PublishWithContext(ctx).
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("publish to %s: %w (status %d)", channel, err, status.StatusCode)
	}
	return nil
}

// NotificationService pushes booking updates to the user's channel. It is
// best effort: failures are logged and counted, never returned.
type NotificationService struct {
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker
	monitor   *monitoring.Monitor
}

func NewNotificationService(publisher Publisher, breaker *gobreaker.CircuitBreaker, monitor *monitoring.Monitor) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		breaker:   breaker,
		monitor:   monitor,
	}
}

func UserChannel(userID string) string {
	return fmt.Sprintf("user-%s", userID)
}

func (s *NotificationService) Enabled() bool {
	return s != nil && s.publisher != nil
}

func (s *NotificationService) NotifyBookingCreated(ctx context.Context, booking *models.Booking, event *models.Event) {
	if !s.Enabled() {
		if s != nil {
			s.monitor.TrackNotification("skipped")
		}
		return
	}

	message := map[string]any{
		"type":        "booking_created",
		"booking_id":  booking.ID,
		"event_id":    booking.EventID,
		"event_title": event.Title,
		"quantity":    booking.Quantity,
		"total_price": booking.TotalPrice.StringFixed(2),
		"status":      string(booking.Status),
	}
	channel := UserChannel(booking.UserID)

	err := utils.ExecuteContext(ctx, s.breaker, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, channel, message)
	})
	if err != nil {
		slog.Warn("Failed to publish booking notification", "channel", channel, "booking_id", booking.ID, "breaker", s.breaker.State().String(), "error", err)
		s.monitor.TrackNotification("failed")
		return
	}
	s.monitor.TrackNotification("sent")
}
