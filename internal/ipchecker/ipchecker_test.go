package ipchecker

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("10.0.0.0")
	assert.Error(t, err)

	checker, err := New("")
	require.NoError(t, err)
	assert.True(t, checker.Allowed(net.ParseIP("203.0.113.7")))
}

func TestGetClientIP(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
		wantErr    bool
	}{
		{name: "X-Real-IP wins", headers: map[string]string{"X-Real-IP": "192.168.1.5", "X-Forwarded-For": "10.0.0.1"}, remoteAddr: "127.0.0.1:1234", want: "192.168.1.5"},
		{name: "first X-Forwarded-For", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 192.168.1.9"}, remoteAddr: "127.0.0.1:1234", want: "10.0.0.1"},
		{name: "remote address", remoteAddr: "192.168.1.20:5555", want: "192.168.1.20"},
		{name: "broken remote address", remoteAddr: "nonsense", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
			request.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				request.Header.Set(k, v)
			}

			ip, err := checker.GetClientIP(request)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ip.String())
		})
	}
}

func TestMiddleware(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	handler := checker.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		remoteAddr string
		want       int
	}{
		{name: "inside subnet", remoteAddr: "192.168.1.20:5555", want: http.StatusNoContent},
		{name: "outside subnet", remoteAddr: "10.1.2.3:5555", want: http.StatusForbidden},
		{name: "unparsable address", remoteAddr: "nonsense", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
			request.RemoteAddr = tt.remoteAddr
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)
			assert.Equal(t, tt.want, recorder.Code)
		})
	}
}
