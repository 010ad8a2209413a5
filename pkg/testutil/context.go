package testutil

import (
	"context"
	"net/http"

	"canopy/pkg/domain"
	"canopy/pkg/requestcontext"
)

// WithCaller adds an authenticated caller to the request context.
// This simulates what the auth middleware does for a valid bearer token.
// An empty caller leaves the request unauthenticated.
func WithCaller(req *http.Request, caller string) *http.Request {
	if caller == "" {
		return req
	}
	ctx := requestcontext.WithCaller(req.Context(), domain.Principal(caller))
	return req.WithContext(ctx)
}

// CallerContext returns a background context carrying caller, for service tests.
func CallerContext(caller string) context.Context {
	return requestcontext.WithCaller(context.Background(), domain.Principal(caller))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
