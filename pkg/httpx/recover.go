package httpx

import (
	"net/http"
	"runtime/debug"

	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// MsgInternalError is the only thing a client learns about an unexpected
// failure. The detail goes to the server log.
const MsgInternalError = "Internal server error"

// Recover turns a panic anywhere below it into a logged 500.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				slogx.FromContext(r.Context()).Error("panic_recovered",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				WriteError(w, http.StatusInternalServerError, MsgInternalError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
