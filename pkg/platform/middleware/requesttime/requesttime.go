// Package requesttime pins one timestamp per request so every event and log
// line emitted while serving it agrees on "now".
package requesttime

import (
	"net/http"
	"time"

	"paddock/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
