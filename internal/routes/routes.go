// Package routes is the route table shared by the navigation shell, the
// views and the auth session store.
package routes

import "net/url"

const (
	Home      = "/"
	Events    = "/events"
	SignIn    = "/sign-in"
	SignUp    = "/sign-up"
	SignOut   = "/sign-out"
	Dashboard = "/dashboard"
	Health    = "/health"
)

// Event is the detail page of one event.
func Event(id string) string {
	return Events + "/" + url.PathEscape(id)
}

// Book is the booking form target of one event.
func Book(id string) string {
	return Event(id) + "/book"
}
