// Package middleware adapts the shared HTTP middleware to the JSON API:
// failures are reported in the apierr body format.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/friendlytable/internal/api/apierr"
	"github.com/mcoot/friendlytable/internal/middleware"
)

// Logging logs every request under the "http" component. Websocket sessions
// are logged once, with status 101, when the socket closes.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "http")))
}

// Recovery turns a handler panic into a 500 INTERNAL_ERROR response
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
