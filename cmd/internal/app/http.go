package app

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type readyResponse struct {
	Status   string `json:"status"`
	DB       string `json:"db"`
	Users    int    `json:"users"`
	Sessions int    `json:"sessions"`
}

func (a *App) registerHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", a.handleReady)

	if a.cfg.MetricsEnabled && a.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	}

	if a.auth != nil {
		a.auth.Register(mux)
	}
}

// handleReady reports 503 when a required or configured DB is unreachable.
// The user store is loaded once at startup, so it never changes readiness.
func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{
		Status:   "ready",
		DB:       "disabled",
		Users:    a.sessions.Users().Len(),
		Sessions: a.sessions.Len(),
	}
	status := http.StatusOK

	switch {
	case a.dbPool != nil:
		if err := PingDB(r.Context(), a.dbPool, 2*time.Second); err != nil {
			a.log.Info("readyz.db.not_ready", "err", err)
			resp.Status, resp.DB = "not_ready", "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.DB = "ok"
		}
	case a.cfg.ReadinessRequireDB:
		resp.Status, resp.DB = "not_ready", "not_configured"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
