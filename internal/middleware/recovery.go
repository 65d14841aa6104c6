package middleware

import (
	"net/http"
	"runtime/debug"

	"WellnessMonitorAPI/internal/logger"
)

// Recovery converts a handler panic into a 500 so a single bad request can
// never take the process down.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("PANIC: %v", err)
					log.Error("Stack trace:\n%s", debug.Stack())

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error": "Internal server error"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
