package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/web3-frozen/itchio-monitor/internal/config"
	"github.com/web3-frozen/itchio-monitor/internal/itchio"
)

const maxBodyBytes = 1 << 16

func GetOptions(p Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, config.Options{ScanInterval: int(p.Interval() / time.Minute)})
	}
}

// PutOptions changes the scan interval of the running poller. The API key is
// not re-validated.
func PutOptions(p Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts config.Options
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&opts); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := opts.Validate(); err != nil {
			writeFormErrors(w, map[string]string{"scan_interval": err.Error()})
			return
		}
		if err := p.SetInterval(opts.ScanDuration()); err != nil {
			writeFormErrors(w, map[string]string{"scan_interval": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, opts)
	}
}

type validateRequest struct {
	APIKey       string `json:"api_key"`
	ScanInterval int    `json:"scan_interval"`
}

// ValidateConfig checks a candidate setup against the live API without
// changing anything. A rejected key answers {"errors":{"base":"invalid_api_key"}}.
func ValidateConfig(v KeyValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ScanInterval != 0 {
			if err := (config.Options{ScanInterval: req.ScanInterval}).Validate(); err != nil {
				writeFormErrors(w, map[string]string{"scan_interval": err.Error()})
				return
			}
		}
		if err := v.ValidateAPIKey(r.Context(), req.APIKey); err != nil {
			if errors.Is(err, itchio.ErrInvalidAPIKey) {
				writeFormErrors(w, map[string]string{"base": itchio.FormErrorKey})
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
	}
}

func writeFormErrors(w http.ResponseWriter, errs map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]map[string]string{"errors": errs})
}
