package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/folio/config"
	"github.com/shashiranjanraj/folio/pkg/app"
	"github.com/shashiranjanraj/folio/pkg/router"
)

// testConfig points the database at a closed port and serves a temp tree.
func testConfig(t *testing.T, env string) config.Config {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>entry</html>"), 0o644))

	return config.Config{
		Env:                   env,
		Port:                  "0",
		StaticRoot:            root,
		IndexFile:             "index.html",
		MongoURI:              "mongodb://127.0.0.1:1/portfolio",
		MongoSelectionTimeout: 200 * time.Millisecond,
		AdminEmail:            "admin@example.com",
		AdminPassword:         "admin123_change_this",
		AdminName:             "admin",
		RateLimit:             1000,
		JWTSecret:             "test",
	}
}

// failingGroup is an API group whose only route hands an error to the boundary.
func failingGroup(c *app.Context) http.Handler {
	r := router.New()
	r.Get("/boom", "", c.Errors.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("widget exploded")
	}))
	return r.Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestListenerIsReachableWithoutDatabase(t *testing.T) {
	var seeded bool
	a := app.New(testConfig(t, "development")).
		Seed("admin", func(context.Context, *app.Context, *mongo.Database) error {
			seeded = true
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inst, err := a.Start(ctx)
	require.NoError(t, err)

	// The listener accepts before the database attempt has resolved.
	resp, err := http.Get(inst.URL() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case <-inst.Booted():
	case <-time.After(5 * time.Second):
		t.Fatal("boot never finished")
	}
	assert.False(t, seeded, "seeders only run after a successful connect")

	resp, err = http.Get(inst.URL() + "/some/client/route")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html>entry</html>", string(body))

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	require.NoError(t, inst.Shutdown(shutdownCtx))
}

func TestRunStopsOnCancel(t *testing.T) {
	a := app.New(testConfig(t, "development"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(app.ShutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestUndefinedPathServesEntryDocument(t *testing.T) {
	h := app.New(testConfig(t, "development")).Handler()

	rec := get(t, h, "/projects/42")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>entry</html>", rec.Body.String())
}

func TestErrorEnvelope(t *testing.T) {
	cases := []struct {
		env  string
		want string
	}{
		{"production", `{"success":false,"message":"Server error","error":null}`},
		{"development", `{"success":false,"message":"Server error","error":"widget exploded"}`},
	}

	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			h := app.New(testConfig(t, tc.env)).API(failingGroup).Handler()

			rec := get(t, h, "/api/boom")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}
}

func TestUnknownAPIPathIsJSON404(t *testing.T) {
	h := app.New(testConfig(t, "development")).Handler()

	for _, path := range []string{"/api/nothing", "/api/auth/nothing", "/api/admin/nothing"} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}

func TestProbesWithoutDatabase(t *testing.T) {
	h := app.New(testConfig(t, "development")).Handler()

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Database string `json:"database"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "idle", body.Data.Database)
}

func TestRequestIDHeader(t *testing.T) {
	h := app.New(testConfig(t, "development")).Handler()

	rec := get(t, h, "/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRoutesIncludeMountedGroups(t *testing.T) {
	routes, err := app.New(testConfig(t, "development")).API(failingGroup).Routes()
	require.NoError(t, err)

	assert.Contains(t, routes, router.RouteInfo{Method: http.MethodGet, Pattern: "/api/boom"})
	assert.Contains(t, routes, router.RouteInfo{Method: http.MethodGet, Pattern: "/healthz"})
}

func TestConfigFileIsNotServed(t *testing.T) {
	cfg := testConfig(t, "production")
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.StaticRoot, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticRoot, "config", "app.json"),
		[]byte(`{"JWT_SECRET":"s3cret","ADMIN_PASSWORD":"hunter2"}`), 0o644))

	rec := get(t, app.New(cfg).Handler(), "/config/app.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>entry</html>", rec.Body.String())
}

func TestListenerDoesNotWaitForRedis(t *testing.T) {
	cfg := testConfig(t, "development")
	cfg.RedisAddr = "10.255.255.1:6379" // unroutable: dial hangs until its timeout

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	began := time.Now()
	inst, err := app.New(cfg).Start(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(began), time.Second, "Start must not block on Redis")

	resp, err := http.Get(inst.URL() + "/api/nothing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "rate limiter answers from memory")

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer done()
	require.NoError(t, inst.Shutdown(shutdownCtx))
}

func TestStartRefusesBuiltInSecretInProduction(t *testing.T) {
	cfg := testConfig(t, "production")
	cfg.JWTSecret = ""

	inst, err := app.New(cfg).Start(context.Background())
	assert.ErrorIs(t, err, config.ErrDefaultSecret)
	assert.Nil(t, inst)
}

func TestRateLimiterMovesToRedisOnceItAnswers(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, "development")
	cfg.RedisAddr = mr.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inst, err := app.New(cfg).Start(ctx)
	require.NoError(t, err)

	select {
	case <-inst.Booted():
	case <-time.After(5 * time.Second):
		t.Fatal("boot never finished")
	}

	resp, err := http.Get(inst.URL() + "/api/nothing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, mr.Keys(), "window counted in Redis")

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	require.NoError(t, inst.Shutdown(shutdownCtx))
}
