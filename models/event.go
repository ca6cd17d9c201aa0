package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEventImage is shown when an event has no image of its own.
const DefaultEventImage = "https://images.unsplash.com/photo-1501281668745-f7f57925c3b4"

// CategoryAll disables the category filter.
const CategoryAll = "all"

// Categories offered by the catalog filter.
var Categories = []string{"conference", "workshop", "concert", "exhibition"}

type Event struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Date             string          `json:"date"` // YYYY-MM-DD
	Time             string          `json:"time"` // HH:MM
	Venue            string          `json:"venue"`
	Price            decimal.Decimal `json:"price"`
	Category         string          `json:"category"`
	ImageURL         string          `json:"image_url"`
	AvailableTickets int             `json:"available_tickets"`
	CreatedAt        time.Time       `json:"created_at"`
	UserID           string          `json:"user_id"`
}

// Image returns the event image or the catalog placeholder.
func (e Event) Image() string {
	if e.ImageURL == "" {
		return DefaultEventImage
	}
	return e.ImageURL
}

// EventFilter narrows the catalog query. Empty fields match everything.
type EventFilter struct {
	Search   string // case-insensitive substring of the title
	Category string // exact, case-sensitive category
}

// NewEventFilter normalizes raw query values: surrounding blanks are dropped
// and the "all" category disables category matching.
func NewEventFilter(search, category string) EventFilter {
	category = strings.TrimSpace(category)
	if category == CategoryAll {
		category = ""
	}
	return EventFilter{
		Search:   strings.TrimSpace(search),
		Category: category,
	}
}

func (f EventFilter) IsEmpty() bool {
	return f.Search == "" && f.Category == ""
}
