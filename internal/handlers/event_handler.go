package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/auth"
	"eventhub/internal/routes"
	"eventhub/internal/services"
	"eventhub/internal/status"
	"eventhub/internal/views"
	"eventhub/models"
	"eventhub/monitoring"
)

type EventHandler struct {
	catalog  *services.CatalogService
	bookings *services.BookingService
	pages    *pages
}

func NewEventHandler(catalog *services.CatalogService, bookings *services.BookingService, renderer *views.Renderer, monitor *monitoring.Monitor) *EventHandler {
	return &EventHandler{
		catalog:  catalog,
		bookings: bookings,
		pages:    &pages{renderer: renderer, monitor: monitor},
	}
}

// ListEvents - GET /events?q=&category=
func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	filter := models.NewEventFilter(query.Get("q"), query.Get("category"))

	events := h.catalog.ListEvents(e.Request.Context(), filter)
	if abandoned(e, views.PageEvents) {
		return nil
	}

	return h.pages.render(e, http.StatusOK, views.PageEvents, "Events", nil, views.EventsData{
		Events:     events,
		Search:     filter.Search,
		Category:   filter.Category,
		Categories: models.Categories,
	})
}

// GetEvent - GET /events/{id}
func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	id := e.Request.PathValue("id")

	event, err := h.catalog.GetEvent(e.Request.Context(), id)
	if abandoned(e, views.PageEvent) {
		return nil
	}
	if err != nil {
		if !errors.Is(err, status.ErrNotFound) {
			slog.Error("Failed to load event", "event_id", id, "error", err)
		}
		return redirect(e, routes.Events)
	}

	return h.pages.render(e, http.StatusOK, views.PageEvent, event.Title, nil, views.EventData{
		Event:      event,
		Quantities: views.Quantities(),
		Nonce:      h.bookings.NewNonce(),
	})
}

// Book - POST /events/{id}/book
func (h *EventHandler) Book(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	snap := auth.FromContext(ctx)
	id := e.Request.PathValue("id")

	if !snap.SignedIn() {
		setFlash(e, views.FlashError, "Please sign in to book tickets")
		return redirect(e, routes.SignIn)
	}

	quantity, err := strconv.Atoi(e.Request.FormValue("quantity"))
	if err != nil {
		quantity = 0
	}

	_, err = h.bookings.CreateBooking(ctx, snap, services.BookingRequest{
		EventID:  id,
		Quantity: quantity,
		Nonce:    e.Request.FormValue("nonce"),
	})
	if abandoned(e, views.PageEvent) {
		return nil
	}

	switch {
	case err == nil:
		setFlash(e, views.FlashSuccess, "Booking created successfully!")
		return redirect(e, routes.Dashboard)
	case errors.Is(err, status.ErrDuplicateSubmission):
		return redirect(e, routes.Dashboard)
	case errors.Is(err, status.ErrUnauthenticated):
		setFlash(e, views.FlashError, "Please sign in to book tickets")
		return redirect(e, routes.SignIn)
	case errors.Is(err, status.ErrInvalidQuantity):
		setFlash(e, views.FlashError, "Please select between 1 and 10 tickets")
	case errors.Is(err, status.ErrSoldOut):
		setFlash(e, views.FlashError, "Not enough tickets left")
	default:
		setFlash(e, views.FlashError, "Failed to create booking")
	}
	return redirect(e, routes.Event(id))
}
