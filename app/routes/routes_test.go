package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/folio/app/routes"
	"github.com/shashiranjanraj/folio/config"
	"github.com/shashiranjanraj/folio/pkg/app"
)

func newApp(t *testing.T, env string) *app.Application {
	t.Helper()
	return app.New(config.Config{
		Env:                   env,
		Port:                  "0",
		StaticRoot:            t.TempDir(),
		IndexFile:             "index.html",
		MongoURI:              "mongodb://127.0.0.1:1/portfolio",
		MongoSelectionTimeout: 100 * time.Millisecond,
		RateLimit:             1000,
		JWTSecret:             "test",
	}).API(routes.API).Auth(routes.Auth).Admin(routes.Admin)
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusAndPing(t *testing.T) {
	h := newApp(t, "development").Handler()

	rec := do(h, http.MethodGet, "/api/status", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"idle"`)

	rec = do(h, http.MethodGet, "/api/ping", "", "")
	assert.JSONEq(t, `{"success":true,"data":"pong"}`, rec.Body.String())
}

func TestLoginValidation(t *testing.T) {
	h := newApp(t, "development").Handler()

	rec := do(h, http.MethodPost, "/api/auth/login", `{`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/auth/login", `{"email":"admin@example.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWithoutDatabaseHitsBoundary(t *testing.T) {
	for env, want := range map[string]string{
		"production":  `{"success":false,"message":"Server error","error":null}`,
		"development": `{"success":false,"message":"Server error","error":"database: not connected"}`,
	} {
		t.Run(env, func(t *testing.T) {
			h := newApp(t, env).Handler()

			rec := do(h, http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"x"}`, "")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, want, rec.Body.String())
		})
	}
}

func TestMeAndAdminGuards(t *testing.T) {
	a := newApp(t, "development")
	h := a.Handler()
	tokens := a.Context().Tokens

	adminToken, err := tokens.Generate("65f0c0ffee", "admin@example.com", "admin")
	require.NoError(t, err)
	userToken, err := tokens.Generate("65f0c0ffef", "visitor@example.com", "user")
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/api/auth/me", "", adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"65f0c0ffee","email":"admin@example.com","role":"admin"}}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/admin/overview", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/api/admin/overview", "", userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Authorised, but the database is not connected.
	rec = do(h, http.MethodGet, "/api/admin/overview", "", adminToken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(h, http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"x"}`, adminToken)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
