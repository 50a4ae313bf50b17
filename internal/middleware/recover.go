package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrorRenderer renders the application's error page for a recovered panic.
type ErrorRenderer func(w http.ResponseWriter, status int, message string)

// Recoverer catches panics from any handler, logs the stack, and renders the
// error page with the panic's message and a 500 status. The message is shown
// to the client; see DESIGN.md for why that behavior is kept.
func Recoverer(logger *slog.Logger, render ErrorRenderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						"error", rec,
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()),
						"stack", string(debug.Stack()),
					)
					render(w, http.StatusInternalServerError, fmt.Sprint(rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
