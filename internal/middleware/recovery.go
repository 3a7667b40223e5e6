package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agentboard/api/internal/logging"
)

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					requestID := GetRequestID(r.Context())
					logger.Error("Panic recovered", fmt.Errorf("%v", rec), map[string]interface{}{
						"path":       r.URL.Path,
						"request_id": requestID,
					})

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"error":      http.StatusText(http.StatusInternalServerError),
						"message":    "internal server error",
						"code":       "INTERNAL",
						"request_id": requestID,
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
