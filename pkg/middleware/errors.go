package middleware

import (
	"net/http"

	"github.com/shashiranjanraj/folio/pkg/logger"
	"github.com/shashiranjanraj/folio/pkg/response"
)

// HandlerFunc is a handler that hands its failure to the error boundary
// instead of writing it.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServerErrorMessage is the message of every boundary response.
const ServerErrorMessage = "Server error"

// ErrorBoundary is the terminal error handler. Every error it receives is
// logged and answered with a 500 envelope:
//
//	{"success": false, "message": "Server error", "error": "<detail>" | null}
//
// The detail is null in production.
type ErrorBoundary struct {
	Production bool
}

// Handle adapts fn to an http.HandlerFunc guarded by the boundary.
func (b ErrorBoundary) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			b.Write(w, r, err)
		}
	}
}

// Write logs err and sends the failure envelope.
func (b ErrorBoundary) Write(w http.ResponseWriter, r *http.Request, err error) {
	logger.WithCtx(r.Context()).Error("server error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
	)
	response.Failure(w, http.StatusInternalServerError, ServerErrorMessage, err, b.Production)
}
