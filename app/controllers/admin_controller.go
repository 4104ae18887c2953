package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/folio/app/repositories"
	"github.com/shashiranjanraj/folio/pkg/app"
	"github.com/shashiranjanraj/folio/pkg/response"
)

type AdminController struct {
	c *app.Context
}

func NewAdminController(c *app.Context) *AdminController {
	return &AdminController{c: c}
}

// Overview reports account counts for the dashboard.
func (a *AdminController) Overview(w http.ResponseWriter, r *http.Request) error {
	db, err := a.c.DB.Database()
	if err != nil {
		return err
	}

	repo := repositories.NewUserRepository(db)
	users, err := repo.Count(r.Context())
	if err != nil {
		return err
	}
	admins, err := repo.CountAdmins(r.Context())
	if err != nil {
		return err
	}

	response.Success(w, map[string]interface{}{
		"users":    users,
		"admins":   admins,
		"database": a.c.DB.State().String(),
	})
	return nil
}
