package handler

import (
	"context"
	"net/http"
	"time"
)

// DBPinger is the interface for checking database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Health returns a handler reporting liveness and database connectivity.
// GET /health — no auth. When the database ping fails (bounded by a 3s
// timeout) it answers 503 with "ok: false" rather than hanging.
func Health(db DBPinger, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		ok := true
		dbStatus := "connected"
		httpStatus := http.StatusOK
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				ok = false
				dbStatus = "disconnected"
				httpStatus = http.StatusServiceUnavailable
			}
		}

		respondJSON(w, httpStatus, map[string]interface{}{
			"ok":       ok,
			"version":  version,
			"database": dbStatus,
		})
	}
}
