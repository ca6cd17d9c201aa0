// Package views renders the server-side HTML pages.
package views

import (
	"embed"
	"fmt"

	"github.com/pocketbase/pocketbase/tools/template"
	"github.com/shopspring/decimal"

	"eventhub/internal/routes"
	"eventhub/models"
	"eventhub/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page names, one per template file.
const (
	PageHome      = "home"
	PageEvents    = "events"
	PageEvent     = "event"
	PageSignIn    = "sign_in"
	PageSignUp    = "sign_up"
	PageDashboard = "dashboard"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type Flash struct {
	Kind    string
	Message string
}

// Page is what every template receives. Data holds the page specific view
// model.
type Page struct {
	Title string
	User  *models.User
	Flash *Flash
	Data  any
}

type EventsData struct {
	Events     []*models.Event
	Search     string
	Category   string
	Categories []string
}

type EventData struct {
	Event      *models.Event
	Quantities []int
	Nonce      string
}

type AuthFormData struct {
	Email    string
	FullName string
}

type DashboardData struct {
	Bookings []*models.BookingWithEvent
}

type Renderer struct {
	registry *template.Registry
}

func NewRenderer(formatter *utils.Formatter) *Renderer {
	registry := template.NewRegistry()
	registry.AddFuncs(map[string]any{
		"formatPrice": formatter.FormatPrice,
		"formatDate":  formatter.FormatDate,
		"formatTime":  formatter.FormatTime,
		"totalPrice": func(price decimal.Decimal, quantity int) string {
			return formatter.FormatPrice(models.TotalPrice(price, quantity))
		},
		"statusClass": StatusClass,
		"ticketLabel": TicketLabel,
		"eventURL":    routes.Event,
		"bookURL":     routes.Book,
	})
	return &Renderer{registry: registry}
}

// Render executes the layout with the named page's content block.
func (r *Renderer) Render(name string, page Page) (string, error) {
	html, err := r.registry.LoadFS(templateFS, layoutFile, "templates/"+name+".html").Render(page)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return html, nil
}

// StatusClass is the badge style of a booking status.
func StatusClass(status models.BookingStatus) string {
	switch status {
	case models.BookingStatusConfirmed:
		return "badge-green"
	case models.BookingStatusCancelled:
		return "badge-red"
	default:
		return "badge-yellow"
	}
}

func TicketLabel(quantity int) string {
	if quantity == 1 {
		return "1 ticket"
	}
	return fmt.Sprintf("%d tickets", quantity)
}

// Quantities lists the selectable ticket counts.
func Quantities() []int {
	out := make([]int, 0, models.MaxTicketQuantity)
	for q := models.MinTicketQuantity; q <= models.MaxTicketQuantity; q++ {
		out = append(out, q)
	}
	return out
}
