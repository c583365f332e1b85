package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/pkg/authsdk"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Probe
//	@Description	Returns 200 when the account store answers a ping and 503 otherwise
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.ProbeResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.ProbeResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.ProbeChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Warn("readiness check failed", "err", err)
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, authsdk.ProbeResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
