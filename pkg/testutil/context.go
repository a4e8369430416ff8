package testutil

import (
	"net/http"

	"intentgate/pkg/requestcontext"
)

// WithCaller stores caller as the authenticated account, as the auth middleware would.
// An empty caller leaves the request unauthenticated.
func WithCaller(req *http.Request, caller string) *http.Request {
	if caller == "" {
		return req
	}
	return req.WithContext(requestcontext.WithCallerID(req.Context(), caller))
}
