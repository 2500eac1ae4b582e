package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		status     int
		wantCalls  int32
		wantStatus int
	}{
		{name: "成功响应", maxRetries: 0, status: http.StatusOK, wantCalls: 1},
		{name: "无重试时5xx只请求一次", maxRetries: 0, status: http.StatusServiceUnavailable, wantCalls: 1, wantStatus: http.StatusServiceUnavailable},
		{name: "4xx不重试", maxRetries: 2, status: http.StatusUnauthorized, wantCalls: 1, wantStatus: http.StatusUnauthorized},
		{name: "5xx按次数重试", maxRetries: 1, status: http.StatusBadGateway, wantCalls: 2, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "secret", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer srv.Close()

			c := NewClient(5*time.Second, tt.maxRetries)
			var out struct {
				OK bool `json:"ok"`
			}
			err := c.PostJSON(context.Background(), srv.URL, map[string]string{"Authorization": "secret"}, map[string]string{"q": "x"}, &out)

			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			if tt.wantStatus == 0 {
				require.NoError(t, err)
				assert.True(t, out.OK)
				return
			}
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantStatus, se.StatusCode)
			assert.Contains(t, se.Body, "ok")
		})
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(50*time.Millisecond, 0)
	err := c.PostJSON(context.Background(), srv.URL, nil, struct{}{}, nil)
	require.Error(t, err)
	assert.Equal(t, 50*time.Millisecond, c.Timeout())
}
