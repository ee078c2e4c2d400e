package middleware

import (
	"mime"
	"net/http"

	apperrors "campsite/pkg/errors"
	"campsite/pkg/logger"
)

// ContentTypeValidation requires a JSON body on the methods that carry a booking, and
// answers 415 UNSUPPORTED_MEDIA_TYPE otherwise.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if carriesBooking(r.Method) {
				if mediaType := mediaTypeOf(r.Header.Get("Content-Type")); mediaType != "application/json" {
					log.Warn("Invalid Content-Type header",
						"request_id", RequestIDFromContext(r.Context()),
						"content_type", mediaType,
						"path", r.URL.Path,
						"method", r.Method,
					)
					reject(w, http.StatusUnsupportedMediaType, apperrors.CodeUnsupportedMediaType)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// carriesBooking reports whether method sends a booking body: POST creates and PUT updates.
func carriesBooking(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// mediaTypeOf returns header's media type without parameters, or "" when it cannot be parsed.
func mediaTypeOf(header string) string {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mediaType
}
