package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded chain takes first hop", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "", "1.1.1.1"},
		{"real ip header", map[string]string{"X-Real-IP": " 3.3.3.3 "}, "", "3.3.3.3"},
		{"remote addr without port", nil, "4.4.4.4:5555", "4.4.4.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r))
		})
	}
}
