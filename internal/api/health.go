package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Env        string            `json:"env"`
	Components map[string]string `json:"components,omitempty"`
}

// LivenessHandler reports that the process is up.
func LivenessHandler(version, env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Version: version,
			Env:     env,
		})
	}
}

// ReadinessHandler pings Postgres and Redis and reports per-component
// status. Returns 503 if any dependency is unreachable.
func ReadinessHandler(version, env string, pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]string{}
		healthy := true

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				components["postgres"] = "unreachable"
				healthy = false
			} else {
				components["postgres"] = "ok"
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				components["redis"] = "unreachable"
				healthy = false
			} else {
				components["redis"] = "ok"
			}
		}

		status := http.StatusOK
		body := healthResponse{Status: "ok", Version: version, Env: env, Components: components}
		if !healthy {
			status = http.StatusServiceUnavailable
			body.Status = "degraded"
		}
		writeJSON(w, status, body)
	}
}
