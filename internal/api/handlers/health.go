package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"slugr/internal/platform/cache"
)

type HealthHandler struct {
	db    *sql.DB
	cache cache.Client
}

func NewHealthHandler(db *sql.DB, c cache.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := h.db.Ping(); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
	} else {
		checks["database"] = "healthy"
	}

	// A sick cache degrades tracking but redirects still work, so it only
	// marks the service degraded, never down.
	if err := h.cache.Ping(r.Context()); err != nil {
		checks["cache"] = "unhealthy: " + err.Error()
	} else {
		checks["cache"] = "healthy"
	}

	status := "healthy"
	for _, check := range checks {
		if len(check) >= 9 && check[:9] == "unhealthy" {
			status = "degraded"
			break
		}
	}

	response := struct {
		Status    string            `json:"status"`
		Timestamp int64             `json:"timestamp"`
		Checks    map[string]string `json:"checks"`
	}{
		Status:    status,
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
