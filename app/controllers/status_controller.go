package controllers

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/folio/pkg/app"
	"github.com/shashiranjanraj/folio/pkg/response"
)

type StatusController struct {
	c       *app.Context
	started time.Time
}

func NewStatusController(c *app.Context) *StatusController {
	return &StatusController{c: c, started: time.Now()}
}

// Status describes the running service.
func (s *StatusController) Status(w http.ResponseWriter, r *http.Request) error {
	response.Success(w, map[string]interface{}{
		"service":     "folio",
		"environment": s.c.Config.Env,
		"database":    s.c.DB.State().String(),
		"uptime":      time.Since(s.started).Round(time.Second).String(),
	})
	return nil
}

func (s *StatusController) Ping(w http.ResponseWriter, r *http.Request) error {
	response.Success(w, "pong")
	return nil
}
