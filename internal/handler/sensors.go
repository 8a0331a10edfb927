package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Games lists every game with its device info and sensor ids.
func Games(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, reg.Games())
	}
}

// Sensors lists sensor states, optionally filtered by ?game_id=.
func Sensors(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var gameID int64
		if raw := r.URL.Query().Get("game_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeError(w, http.StatusBadRequest, "game_id must be a positive integer")
				return
			}
			gameID = id
		}
		writeJSON(w, http.StatusOK, reg.States(gameID))
	}
}

// Sensor returns the last computed state of one sensor. Reading never
// triggers recomputation.
func Sensor(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := reg.Get(chi.URLParam(r, "unique_id"))
		if !ok {
			writeError(w, http.StatusNotFound, "sensor not found")
			return
		}
		writeJSON(w, http.StatusOK, s.State())
	}
}
