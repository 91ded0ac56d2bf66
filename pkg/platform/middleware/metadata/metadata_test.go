package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"guardian/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{name: "forwarded chain uses first hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, expected: "203.0.113.7"},
		{name: "single forwarded", headers: map[string]string{"X-Forwarded-For": " 203.0.113.8 "}, expected: "203.0.113.8"},
		{name: "real ip header", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, expected: "198.51.100.2"},
		{name: "ipv4 remote addr", remoteAddr: "192.0.2.1:5555", expected: "192.0.2.1"},
		{name: "ipv6 remote addr", remoteAddr: "[::1]:5555", expected: "::1"},
		{name: "garbage forwarded header falls through", headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remoteAddr: "192.0.2.9:80", expected: "192.0.2.9"},
		{name: "mapped ipv4 is unmapped", remoteAddr: "[::ffff:192.0.2.3]:80", expected: "192.0.2.3"},
		{name: "nothing available", remoteAddr: "", expected: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("User-Agent", "wallet/1.0 (Android 14)")

	var ip, ua string
	ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.1", ip)
	assert.Equal(t, "wallet/1.0 (Android 14)", ua)
}
