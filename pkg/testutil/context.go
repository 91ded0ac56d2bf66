package testutil

import (
	"net/http"
	"time"

	"guardian/pkg/platform/middleware/admin"
	"guardian/pkg/requestcontext"
)

// AsAdmin sets the admin token header the operator routes require.
func AsAdmin(req *http.Request, token string) *http.Request {
	req.Header.Set(admin.HeaderAdminToken, token)
	return req
}

// AtTime pins the request-scoped clock, as the requesttime middleware would.
func AtTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
