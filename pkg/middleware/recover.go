package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/folio/pkg/logger"
)

// Recovery catches any panic in downstream handlers, logs the stack trace,
// and answers through the error boundary so panics and returned errors look
// the same to clients.
//
//	r.Use(metrics.Middleware())
//	r.Use(middleware.Recovery(boundary))   // ← catches panics from all below
//	r.Use(reqid.Middleware())
//	r.Use(middleware.Logger)
func Recovery(b ErrorBoundary) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					"panic", fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				b.Write(w, r, err)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
