package http

import (
	"context"
	"net/http"
	"time"

	"github.com/lagoonid/oauthd/pkg/httpx"
)

// Pinger covers the stores readiness checks against.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthBody struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// LivezHandler reports process liveness.
func LivezHandler(startTime time.Time, version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthBody{
			Status:  "ok",
			Version: version,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
		})
	})
}

// ReadyzHandler reports readiness: every backing store must answer a
// ping within the deadline.
func ReadyzHandler(startTime time.Time, version string, pingers ...Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, p := range pingers {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, healthBody{
					Status:  "unavailable",
					Version: version,
					Uptime:  time.Since(startTime).Round(time.Second).String(),
				})
				return
			}
		}

		httpx.WriteJSON(w, http.StatusOK, healthBody{
			Status:  "ok",
			Version: version,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
		})
	})
}
