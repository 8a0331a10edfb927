package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/web3-frozen/itchio-monitor/internal/monitor"
)

func Status(p Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, p.Status())
	}
}

// Refresh runs a fetch cycle now. The cycle is detached from the request so
// a client disconnect does not discard the result.
func Refresh(p Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := p.Refresh(context.WithoutCancel(r.Context()))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, p.Status())
		case errors.Is(err, monitor.ErrClosed):
			writeError(w, http.StatusServiceUnavailable, "monitor is shutting down")
		case errors.Is(err, monitor.ErrUpdateFailed):
			writeError(w, http.StatusBadGateway, "update failed, no cached data")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}
