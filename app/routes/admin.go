package routes

import (
	"net/http"

	"github.com/shashiranjanraj/folio/app/controllers"
	"github.com/shashiranjanraj/folio/app/models"
	"github.com/shashiranjanraj/folio/pkg/app"
	"github.com/shashiranjanraj/folio/pkg/middleware"
	"github.com/shashiranjanraj/folio/pkg/rbac"
)

// Admin is mounted at /api/admin. Every route requires an admin token.
func Admin(c *app.Context) http.Handler {
	admin := controllers.NewAdminController(c)

	r := newGroup()
	g := r.Group("/", middleware.Authenticate(c.Tokens), rbac.HasRole(models.RoleAdmin))
	g.Get("/overview", "admin.overview", c.Errors.Handle(admin.Overview))
	return r.Handler()
}
