// Package caller restricts routes to one authenticated account.
package caller

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "intentgate/pkg/platform/middleware/request"
	"intentgate/pkg/requestcontext"
)

// Require admits only requests whose authenticated caller equals expected(). It must
// run after the auth middleware. expected is read per request so a rotated identity
// takes effect immediately.
func Require(expected func() string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			want := expected()
			got := requestcontext.CallerID(ctx)
			if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				logger.WarnContext(ctx, "caller not permitted on route",
					"caller", got,
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"caller not permitted"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
