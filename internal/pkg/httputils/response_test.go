package httputils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/json"
	"github.com/kart-io/rag-assistant/pkg/utils/response"
)

func newEngine(err error, data interface{}) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		WriteResponse(c, err, data)
	})
	return r
}

func TestWriteResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		data     interface{}
		wantHTTP int
		wantCode int
	}{
		{name: "成功", data: map[string]int{"count": 3}, wantHTTP: http.StatusOK, wantCode: 0},
		{name: "业务错误", err: errors.ErrInvalidFeedback, wantHTTP: http.StatusBadRequest, wantCode: errors.ErrInvalidFeedback.Code},
		{name: "普通错误转为内部错误", err: assert.AnError, wantHTTP: http.StatusInternalServerError, wantCode: errors.ErrInternal.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderXRequestID, "fixed-id")
			newEngine(tt.err, tt.data).ServeHTTP(w, req)

			assert.Equal(t, tt.wantHTTP, w.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, "fixed-id", resp.RequestID)
		})
	}
}

func TestRequestIDGenerated(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(nil, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(HeaderXRequestID), 26)
}
