package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/authsdk"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Liveness Probe
//	@Description	Always returns 200 OK while the process is serving, with uptime and version
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.ProbeResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.ProbeResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
