package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/folio/pkg/middleware"
)

func failing(w http.ResponseWriter, r *http.Request) error {
	return errors.New("collection users: timeout")
}

func TestErrorBoundaryProductionHidesDetail(t *testing.T) {
	h := middleware.ErrorBoundary{Production: true}.Handle(failing)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Server error","error":null}`, rec.Body.String())
}

func TestErrorBoundaryDevelopmentShowsDetail(t *testing.T) {
	h := middleware.ErrorBoundary{}.Handle(failing)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Server error","error":"collection users: timeout"}`, rec.Body.String())
}

func TestErrorBoundaryPassesThroughSuccess(t *testing.T) {
	h := middleware.ErrorBoundary{}.Handle(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusAccepted)
		return nil
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRecoveryUsesBoundaryEnvelope(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("nil map write") })

	for _, tc := range []struct {
		name       string
		production bool
		want       string
	}{
		{"production", true, `{"success":false,"message":"Server error","error":null}`},
		{"development", false, `{"success":false,"message":"Server error","error":"nil map write"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.Recovery(middleware.ErrorBoundary{Production: tc.production})(boom)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}
}

func TestRecoveryRepanicsOnAbort(t *testing.T) {
	h := middleware.Recovery(middleware.ErrorBoundary{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
