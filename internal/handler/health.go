package handler

import (
	"net/http"
)

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// Ready reports ready once a snapshot exists and the state store answers.
func Ready(p Poller, s Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if p.Snapshot() == nil {
			http.Error(w, `{"status":"not ready","reason":"no data"}`, http.StatusServiceUnavailable)
			return
		}
		if err := s.Ping(r.Context()); err != nil {
			http.Error(w, `{"status":"not ready","reason":"state store"}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}
