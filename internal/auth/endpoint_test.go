package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointAuthBasic(t *testing.T) {
	ea := NewEndpointAuth(EndpointOptions{
		Type:     "basic",
		Username: "admin",
		Password: "secret",
	}, testLogger())
	require.True(t, ea.IsAuthEnabled())

	assert.True(t, ea.IsAuthenticated(newRequest("Basic YWRtaW46c2VjcmV0")))
	assert.False(t, ea.IsAuthenticated(newRequest("")))
	assert.False(t, ea.IsAuthenticated(newRequest(basicHeader("admin", "wrong"))))
}

func TestEndpointAuthBearer(t *testing.T) {
	ea := NewEndpointAuth(EndpointOptions{
		Type:  "bearer",
		Token: "tok-123",
	}, testLogger())
	require.True(t, ea.IsAuthEnabled())

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid token", "Bearer tok-123", true},
		{"padded token", "Bearer   tok-123  ", true},
		{"wrong token", "Bearer tok-456", false},
		{"basic scheme", "Basic tok-123", false},
		{"missing header", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ea.IsAuthenticated(newRequest(tt.header)))
		})
	}
}

func TestEndpointAuthDisabled(t *testing.T) {
	ea := NewEndpointAuth(EndpointOptions{Type: "none"}, testLogger())
	assert.False(t, ea.IsAuthEnabled())
	assert.True(t, ea.IsAuthenticated(newRequest("")))

	// Bearer without a token is likewise disabled.
	ea = NewEndpointAuth(EndpointOptions{Type: "bearer"}, testLogger())
	assert.False(t, ea.IsAuthEnabled())
	assert.True(t, ea.IsAuthenticated(newRequest("")))
}

func TestEndpointAuthUnsupportedTypeFailsClosed(t *testing.T) {
	// A misconfigured auth type with a credential present must enforce
	// authentication and reject everything, not silently disable it.
	ea := NewEndpointAuth(EndpointOptions{Type: "digest", Token: "tok-123"}, testLogger())
	require.True(t, ea.IsAuthEnabled())

	assert.False(t, ea.IsAuthenticated(newRequest("")))
	assert.False(t, ea.IsAuthenticated(newRequest("Bearer tok-123")))
	assert.False(t, ea.IsAuthenticated(newRequest(basicHeader("admin", "secret"))))

	ea = NewEndpointAuth(EndpointOptions{Type: "digest", Username: "admin", Password: "secret"}, testLogger())
	require.True(t, ea.IsAuthEnabled())
	assert.False(t, ea.IsAuthenticated(newRequest(basicHeader("admin", "secret"))))

	// Unknown type with no credential at all stays disabled.
	ea = NewEndpointAuth(EndpointOptions{Type: "digest"}, testLogger())
	assert.False(t, ea.IsAuthEnabled())
	assert.True(t, ea.IsAuthenticated(newRequest("")))
}

func TestEndpointAuthAllowList(t *testing.T) {
	ea := NewEndpointAuth(EndpointOptions{
		Type:      "basic",
		Username:  "admin",
		Password:  "secret",
		AllowList: []string{"127.0.0.1", "10.1.0.0/16", "bogus", "300.1.1.1/8"},
	}, testLogger())

	tests := []struct {
		name   string
		remote string
		want   bool
	}{
		{"exact match", "127.0.0.1:9999", true},
		{"cidr match", "10.1.42.7:1234", true},
		{"outside cidr", "10.2.0.1:1234", false},
		{"unrelated", "192.0.2.1:1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example.com/metrics", nil)
			r.RemoteAddr = tt.remote
			assert.Equal(t, tt.want, ea.IsAuthenticated(r))
		})
	}
}

func TestEndpointAuthSendAuthRequired(t *testing.T) {
	ea := NewEndpointAuth(EndpointOptions{Type: "bearer", Token: "tok", Realm: "Metrics"}, testLogger())

	rec := httptest.NewRecorder()
	require.NoError(t, ea.SendAuthRequired(rec))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Bearer realm="Metrics"`, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Unauthorized", rec.Body.String())
}
