package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

func newQueryContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestIntQuery(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    int
		wantErr bool
	}{
		{"缺省值", "/stats", 7, false},
		{"指定值", "/stats?days=30", 30, false},
		{"非数字", "/stats?days=abc", 0, true},
		{"零", "/stats?days=0", 0, true},
		{"负数", "/stats?days=-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := intQuery(newQueryContext(t, tt.target), "days", 7)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrInvalidParam.Code))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionParam(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"合法会话", "tg:123456", false},
		{"ulid", "01J9Z3K8W6T5Q4R3P2N1M0XYZA", false},
		{"非法字符", "a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newQueryContext(t, "/sessions")
			c.Params = gin.Params{{Key: "id", Value: tt.id}}
			got, ok := sessionParam(c)
			assert.Equal(t, !tt.wantErr, ok)
			if ok {
				assert.Equal(t, tt.id, got)
			}
		})
	}
}
