package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/auth"
	"eventhub/internal/views"
	"eventhub/monitoring"
)

// pages renders views with the request's user and pending flash.
type pages struct {
	renderer *views.Renderer
	monitor  *monitoring.Monitor
}

func (p *pages) render(e *core.RequestEvent, status int, name, title string, flash *views.Flash, data any) error {
	start := time.Now()

	if pending := popFlash(e); flash == nil {
		flash = pending
	}

	html, err := p.renderer.Render(name, views.Page{
		Title: title,
		User:  auth.FromContext(e.Request.Context()).User,
		Flash: flash,
		Data:  data,
	})
	if err != nil {
		slog.Error("Failed to render page", "page", name, "error", err)
		return apis.NewInternalServerError("Failed to render page", err)
	}

	p.monitor.TrackRender(name, time.Since(start))
	return e.HTML(status, html)
}

func redirect(e *core.RequestEvent, to string) error {
	status := http.StatusFound
	if e.Request.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	return e.Redirect(status, to)
}

// abandoned reports whether the client went away while a backend call was
// in flight. Its result is dropped instead of rendered.
func abandoned(e *core.RequestEvent, page string) bool {
	if err := e.Request.Context().Err(); err != nil {
		slog.Debug("Dropping result of cancelled request", "page", page, "error", err)
		return true
	}
	return false
}

type HomeHandler struct {
	pages *pages
}

func NewHomeHandler(renderer *views.Renderer, monitor *monitoring.Monitor) *HomeHandler {
	return &HomeHandler{pages: &pages{renderer: renderer, monitor: monitor}}
}

func (h *HomeHandler) Home(e *core.RequestEvent) error {
	return h.pages.render(e, http.StatusOK, views.PageHome, "", nil, nil)
}
