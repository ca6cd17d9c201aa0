package backend

import (
	"eventhub/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// Collection names as created by the migrations package.
const (
	UsersCollection    = "users"
	ProfilesCollection = "profiles"
	EventsCollection   = "events"
	BookingsCollection = "bookings"
)

// eventFilterExpressions translates the catalog filter into WHERE clauses:
// LIKE on title (case-insensitive in SQLite) and equality on category.
func eventFilterExpressions(filter models.EventFilter) []dbx.Expression {
	exprs := []dbx.Expression{}
	if filter.Search != "" {
		exprs = append(exprs, dbx.Like("title", filter.Search))
	}
	if filter.Category != "" {
		exprs = append(exprs, dbx.HashExp{"category": filter.Category})
	}
	return exprs
}

func eventFromRecord(r *core.Record) *models.Event {
	return &models.Event{
		ID:               r.Id,
		Title:            r.GetString("title"),
		Description:      r.GetString("description"),
		Date:             r.GetString("date"),
		Time:             r.GetString("time"),
		Venue:            r.GetString("venue"),
		Price:            decimal.NewFromFloat(r.GetFloat("price")),
		Category:         r.GetString("category"),
		ImageURL:         r.GetString("image_url"),
		AvailableTickets: r.GetInt("available_tickets"),
		CreatedAt:        r.GetDateTime("created").Time(),
		UserID:           r.GetString("user"),
	}
}

func bookingFromRecord(r *core.Record) *models.Booking {
	return &models.Booking{
		ID:              r.Id,
		EventID:         r.GetString("event"),
		UserID:          r.GetString("user"),
		Quantity:        r.GetInt("quantity"),
		TotalPrice:      decimal.NewFromFloat(r.GetFloat("total_price")),
		Status:          models.BookingStatus(r.GetString("status")),
		CreatedAt:       r.GetDateTime("created").Time(),
		PaymentIntentID: r.GetString("payment_intent_id"),
	}
}

func profileFromRecord(r *core.Record) *models.User {
	return &models.User{
		ID:        r.Id,
		Email:     r.GetString("email"),
		FullName:  r.GetString("full_name"),
		AvatarURL: r.GetString("avatar_url"),
		Role:      models.Role(r.GetString("role")),
	}
}
