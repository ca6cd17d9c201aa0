package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/views"
)

const flashCookie = "eventhub_flash"

// setFlash stores a one-shot notification for the next rendered page.
func setFlash(e *core.RequestEvent, kind, message string) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + ":" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending notification, if any, and clears it.
func popFlash(e *core.RequestEvent) *views.Flash {
	c, err := e.Request.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(e.Response, &http.Cookie{
		Name:   flashCookie,
		Path:   "/",
		MaxAge: -1,
	})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, ":")
	if !ok || message == "" {
		return nil
	}
	if kind != views.FlashSuccess && kind != views.FlashError {
		return nil
	}
	return &views.Flash{Kind: kind, Message: message}
}
