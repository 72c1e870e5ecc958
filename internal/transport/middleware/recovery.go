package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/transport"
	pkglogger "github.com/Selami79/rubber-ds/pkg/logger"
)

// RecoveryMiddleware turns a panic into a logged 500 with a generic body.
func RecoveryMiddleware(lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	lg = base.Logger
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					lg.ErrorContext(r.Context(), "panic recovered",
						"trace_id", pkglogger.TraceID(r.Context()),
						"error", err,
						"method", r.Method,
						"url", r.URL.String(),
						"stack", string(debug.Stack()))

					base.HandleServiceError(w, internal.NewInternalError("internal server error", nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
