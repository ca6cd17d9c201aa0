package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/auth"
	"eventhub/internal/routes"
	"eventhub/internal/status"
	"eventhub/internal/views"
	"eventhub/monitoring"
)

const minPasswordLength = 6

type AuthHandler struct {
	store    *auth.Store
	sessions *SessionHandler
	pages    *pages
	monitor  *monitoring.Monitor
}

func NewAuthHandler(store *auth.Store, sessions *SessionHandler, renderer *views.Renderer, monitor *monitoring.Monitor) *AuthHandler {
	return &AuthHandler{
		store:    store,
		sessions: sessions,
		pages:    &pages{renderer: renderer, monitor: monitor},
		monitor:  monitor,
	}
}

func (h *AuthHandler) SignInPage(e *core.RequestEvent) error {
	if auth.FromContext(e.Request.Context()).SignedIn() {
		return redirect(e, routes.Dashboard)
	}
	return h.pages.render(e, http.StatusOK, views.PageSignIn, "Sign In", nil, views.AuthFormData{})
}

func (h *AuthHandler) SignIn(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	snap := auth.FromContext(ctx)
	form := views.AuthFormData{Email: strings.TrimSpace(e.Request.FormValue("email"))}
	password := e.Request.FormValue("password")

	sessionID := h.sessions.rotate()
	next, err := h.store.SignIn(ctx, sessionID, form.Email, password)
	if abandoned(e, views.PageSignIn) {
		return nil
	}
	if err != nil {
		h.monitor.TrackAuth("sign_in", "failed")
		message := "Invalid email or password"
		if !errors.Is(err, status.ErrInvalidCredentials) {
			slog.Error("Sign in failed", "email", form.Email, "error", err)
			message = "Sign in failed, please try again"
		}
		return h.pages.render(e, http.StatusUnauthorized, views.PageSignIn, "Sign In",
			&views.Flash{Kind: views.FlashError, Message: message}, form)
	}

	if snap.SignedIn() {
		if _, err := h.store.SignOut(ctx, snap.SessionID); err != nil {
			slog.Warn("Failed to end replaced session", "session_id", snap.SessionID, "error", err)
		}
	}

	h.sessions.commit(e, sessionID)
	h.monitor.TrackAuth("sign_in", "ok")
	setFlash(e, views.FlashSuccess, "Signed in successfully")
	return redirect(e, next)
}

func (h *AuthHandler) SignUpPage(e *core.RequestEvent) error {
	if auth.FromContext(e.Request.Context()).SignedIn() {
		return redirect(e, routes.Dashboard)
	}
	return h.pages.render(e, http.StatusOK, views.PageSignUp, "Sign Up", nil, views.AuthFormData{})
}

func (h *AuthHandler) SignUp(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	form := views.AuthFormData{
		Email:    strings.TrimSpace(e.Request.FormValue("email")),
		FullName: strings.TrimSpace(e.Request.FormValue("full_name")),
	}
	password := e.Request.FormValue("password")

	if form.Email == "" || form.FullName == "" {
		return h.signUpFailed(e, form, "Please fill in all fields")
	}
	if len(password) < minPasswordLength {
		return h.signUpFailed(e, form, "Password must be at least 6 characters")
	}

	next, err := h.store.SignUp(ctx, form.Email, password, form.FullName)
	if abandoned(e, views.PageSignUp) {
		return nil
	}
	if err != nil {
		slog.Error("Sign up failed", "email", form.Email, "error", err)
		return h.signUpFailed(e, form, "Failed to create account")
	}

	h.monitor.TrackAuth("sign_up", "ok")
	setFlash(e, views.FlashSuccess, "Account created! Please sign in.")
	return redirect(e, next)
}

func (h *AuthHandler) signUpFailed(e *core.RequestEvent, form views.AuthFormData, message string) error {
	h.monitor.TrackAuth("sign_up", "failed")
	return h.pages.render(e, http.StatusUnprocessableEntity, views.PageSignUp, "Sign Up",
		&views.Flash{Kind: views.FlashError, Message: message}, form)
}

func (h *AuthHandler) SignOut(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	snap := auth.FromContext(ctx)

	next, err := h.store.SignOut(ctx, snap.SessionID)
	if err != nil {
		h.monitor.TrackAuth("sign_out", "failed")
		slog.Error("Sign out failed", "session_id", snap.SessionID, "error", err)
		setFlash(e, views.FlashError, "Failed to sign out")
		return redirect(e, routes.Home)
	}

	h.monitor.TrackAuth("sign_out", "ok")
	return redirect(e, next)
}
