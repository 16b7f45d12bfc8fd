package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-proposal/internal/common"
)

func TestDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	common.Data(rec, http.StatusCreated, map[string]string{"city": "<Jaipur>"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"data":{"city":"<Jaipur>"}}`, rec.Body.String())
	require.Contains(t, rec.Body.String(), "<Jaipur>")
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded first hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.2:443", want: "203.0.113.7"},
		{name: "garbage forwarded falls through", headers: map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.4"}, remote: "10.0.0.2:443", want: "198.51.100.4"},
		{name: "socket peer", remote: "192.0.2.10:5123", want: "192.0.2.10"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:8080", want: "2001:db8::1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, common.ClientIP(req))
		})
	}
}
