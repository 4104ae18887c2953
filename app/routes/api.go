// Package routes holds the three route groups mounted by the application:
// /api, /api/auth and /api/admin.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/folio/app/controllers"
	"github.com/shashiranjanraj/folio/pkg/app"
	"github.com/shashiranjanraj/folio/pkg/response"
	"github.com/shashiranjanraj/folio/pkg/router"
)

// API is the public group mounted at /api.
func API(c *app.Context) http.Handler {
	status := controllers.NewStatusController(c)

	r := newGroup()
	r.Get("/status", "api.status", c.Errors.Handle(status.Status))
	r.Get("/ping", "api.ping", c.Errors.Handle(status.Ping))
	return r.Handler()
}

// newGroup returns a router whose unmatched paths answer with a JSON 404
// instead of falling through to the entry document.
func newGroup() *router.Router {
	r := router.New()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}
