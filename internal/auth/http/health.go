package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/authsdk"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

type userCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

// HealthHandler godoc
//
//	@Summary		Service Health
//	@Description	Status, server time, uptime in seconds and the number of registered accounts
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, timestamp, uptime, users"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/api/health [get].
func HealthHandler(startTime time.Time, users userCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := users.CountUsers(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:    "OK",
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(startTime).Seconds(),
			Users:     n,
		})
	}
}
