package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/auth"
)

const sessionCookie = "eventhub_session"

// SessionHandler gives every browser a session cookie and attaches the
// session's auth snapshot to the request context.
type SessionHandler struct {
	store  *auth.Store
	ttl    time.Duration
	secure bool
}

func NewSessionHandler(store *auth.Store, ttl time.Duration, secure bool) *SessionHandler {
	return &SessionHandler{store: store, ttl: ttl, secure: secure}
}

// Middleware is bound on the router. PocketBase's own API and admin UI are
// passed through untouched.
func (h *SessionHandler) Middleware(e *core.RequestEvent) error {
	path := e.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/_/") {
		return e.Next()
	}
	h.attach(e)
	return e.Next()
}

func (h *SessionHandler) attach(e *core.RequestEvent) {
	sessionID := h.sessionID(e)
	ctx := e.Request.Context()

	snap, err := h.store.Snapshot(ctx, sessionID)
	if err != nil {
		slog.Warn("Failed to restore session", "session_id", sessionID, "error", err)
		snap = auth.Snapshot{SessionID: sessionID}
	}

	e.Request = e.Request.WithContext(auth.WithSnapshot(ctx, snap))
}

func (h *SessionHandler) sessionID(e *core.RequestEvent) string {
	if c, err := e.Request.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	h.setCookie(e, id)
	return id
}

// rotate issues a fresh session id for a browser that is about to sign in,
// so an id handed out before authentication never becomes a signed-in one.
// The cookie is written by commit once the sign-in succeeded.
func (h *SessionHandler) rotate() string {
	return uuid.NewString()
}

func (h *SessionHandler) commit(e *core.RequestEvent, sessionID string) {
	h.setCookie(e, sessionID)
}

func (h *SessionHandler) setCookie(e *core.RequestEvent, sessionID string) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
