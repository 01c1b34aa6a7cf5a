// Package health serves the liveness endpoint, which also pings the stores.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 2 * time.Second

// Response is the payload for the health endpoint.
type Response struct {
	Status string `json:"status"`
}

// Checker reports whether the service's dependencies are reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// Handler answers 200 {"status":"healthy"} when checker succeeds and 503
// {"status":"unhealthy"} otherwise. A nil checker is always healthy.
func Handler(checker Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), DefaultTimeout)
			err := checker.Ping(ctx)
			cancel()
			if err != nil {
				applog.LogError(r.Context(), "health check failed", err)
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(Response{Status: status})
	}
}
