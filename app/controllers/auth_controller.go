package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/folio/app/repositories"
	"github.com/shashiranjanraj/folio/app/services"
	"github.com/shashiranjanraj/folio/pkg/app"
	"github.com/shashiranjanraj/folio/pkg/logger"
	"github.com/shashiranjanraj/folio/pkg/middleware"
	"github.com/shashiranjanraj/folio/pkg/response"
)

type AuthController struct {
	c *app.Context
}

func NewAuthController(c *app.Context) *AuthController {
	return &AuthController{c: c}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a bearer token.
func (a *AuthController) Login(w http.ResponseWriter, r *http.Request) error {
	var body loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return nil
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		response.Error(w, http.StatusBadRequest, "Email and password are required")
		return nil
	}

	db, err := a.c.DB.Database()
	if err != nil {
		return err
	}

	svc := services.NewAuthService(repositories.NewUserRepository(db), a.c.Tokens)
	token, user, err := svc.Login(r.Context(), body.Email, body.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		logger.WithCtx(r.Context()).Info("login rejected", "email", body.Email)
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return nil
	}
	if err != nil {
		return err
	}

	response.Success(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
	return nil
}

// Me returns the identity carried by the bearer token.
func (a *AuthController) Me(w http.ResponseWriter, r *http.Request) error {
	claims, ok := middleware.ClaimsFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return nil
	}

	response.Success(w, map[string]string{
		"id":    claims.UserID,
		"email": claims.Email,
		"role":  claims.Role,
	})
	return nil
}
