// Package requesttime provides middleware for request-scoped time.
// All operations within a single HTTP request use the same "now", so the
// logical timestamps a request stamps onto records agree with its audit events.
package requesttime

import (
	"net/http"
	"time"

	"canopy/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
