package middleware

import (
	"net/http"
	"runtime/debug"

	apperrors "campsite/pkg/errors"
	"campsite/pkg/logger"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR. A panic on a shard or router
// goroutine is not caught here and still takes the process down.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.Error("Panic recovered",
						"request_id", RequestIDFromContext(r.Context()),
						"panic", p,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					reject(w, http.StatusInternalServerError, apperrors.CodeInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
