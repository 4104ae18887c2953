package routes

import (
	"net/http"

	"github.com/shashiranjanraj/folio/app/controllers"
	"github.com/shashiranjanraj/folio/pkg/app"
	"github.com/shashiranjanraj/folio/pkg/middleware"
	"github.com/shashiranjanraj/folio/pkg/rbac"
)

// Auth is mounted at /api/auth.
func Auth(c *app.Context) http.Handler {
	auth := controllers.NewAuthController(c)

	r := newGroup()
	r.Post("/login", "auth.login", c.Errors.Handle(auth.Login), middleware.Identify(c.Tokens), rbac.Guest)
	r.Get("/me", "auth.me", c.Errors.Handle(auth.Me), middleware.Authenticate(c.Tokens))
	return r.Handler()
}
