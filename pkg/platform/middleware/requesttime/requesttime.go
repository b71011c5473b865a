// Package requesttime pins one "now" per request so timestamps written during
// a request (claim expiry, transfer completion) agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"tbt/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
