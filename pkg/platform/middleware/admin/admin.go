package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "paddock/pkg/domain-errors"
	"paddock/pkg/platform/httputil"
	"paddock/pkg/requestcontext"
)

// HeaderName carries the shared admin token.
const HeaderName = "X-Admin-Token"

// RequireAdminToken guards mutating routes. An empty expected token leaves
// the routes open, which is how local development runs.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expectedToken == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderName)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"method", r.Method,
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
