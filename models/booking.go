package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Ticket quantity bounds for a single booking.
const (
	MinTicketQuantity = 1
	MaxTicketQuantity = 10
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// Label is the capitalized status shown on badges.
func (s BookingStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

type Booking struct {
	ID              string          `json:"id"`
	EventID         string          `json:"event_id"`
	UserID          string          `json:"user_id"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          BookingStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
}

// BookingWithEvent is the dashboard read model: a booking row joined with
// the event it belongs to.
type BookingWithEvent struct {
	Booking
	Event Event `json:"event"`
}

// ValidQuantity reports whether q tickets can be booked at once.
func ValidQuantity(q int) bool {
	return q >= MinTicketQuantity && q <= MaxTicketQuantity
}

// TotalPrice is price x quantity, computed in decimal arithmetic.
func TotalPrice(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
