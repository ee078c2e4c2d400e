package middleware

import (
	"net/http"

	apperrors "campsite/pkg/errors"
	"campsite/pkg/logger"
)

// MaxRequestSize rejects bodies larger than limit bytes. Declared lengths are refused
// up front; undeclared ones fail on read through http.MaxBytesReader.
func MaxRequestSize(limit int64, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				log.Warn("Request body too large",
					"request_id", RequestIDFromContext(r.Context()),
					"content_length", r.ContentLength,
					"limit", limit,
					"path", r.URL.Path,
				)
				reject(w, http.StatusRequestEntityTooLarge, apperrors.CodeRequestTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
