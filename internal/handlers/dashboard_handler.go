package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/auth"
	"eventhub/internal/routes"
	"eventhub/internal/services"
	"eventhub/internal/views"
	"eventhub/models"
	"eventhub/monitoring"
)

type DashboardHandler struct {
	bookings *services.BookingService
	pages    *pages
}

func NewDashboardHandler(bookings *services.BookingService, renderer *views.Renderer, monitor *monitoring.Monitor) *DashboardHandler {
	return &DashboardHandler{
		bookings: bookings,
		pages:    &pages{renderer: renderer, monitor: monitor},
	}
}

// Dashboard - GET /dashboard, the signed-in user's bookings
func (h *DashboardHandler) Dashboard(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	snap := auth.FromContext(ctx)
	if !snap.SignedIn() {
		return redirect(e, routes.SignIn)
	}

	var flash *views.Flash
	bookings, err := h.bookings.ListUserBookings(ctx, snap)
	if abandoned(e, views.PageDashboard) {
		return nil
	}
	if err != nil {
		slog.Error("Failed to load bookings", "user_id", snap.User.ID, "error", err)
		flash = &views.Flash{Kind: views.FlashError, Message: "Failed to load bookings"}
		bookings = []*models.BookingWithEvent{}
	}

	return h.pages.render(e, http.StatusOK, views.PageDashboard, "Dashboard", flash, views.DashboardData{
		Bookings: bookings,
	})
}
