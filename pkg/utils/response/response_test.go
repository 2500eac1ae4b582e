package response

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

func TestErr(t *testing.T) {
	tests := []struct {
		name     string
		errno    *errors.Errno
		wantCode int
		wantHTTP int
	}{
		{name: "空错误视为成功", errno: nil, wantCode: 0, wantHTTP: http.StatusOK},
		{name: "参数错误", errno: errors.ErrInvalidParam, wantCode: errors.ErrInvalidParam.Code, wantHTTP: http.StatusBadRequest},
		{name: "生成失败", errno: errors.ErrGenerationFailed, wantCode: errors.ErrGenerationFailed.Code, wantHTTP: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Err(tt.errno)
			assert.Equal(t, tt.wantCode, r.Code)
			assert.Equal(t, tt.wantHTTP, r.HTTPStatus())
		})
	}
}

func TestHTTPStatusFallback(t *testing.T) {
	r := &Response{Code: errors.MakeCode(errors.ServiceAssistant, errors.CategoryRequest, 999)}
	assert.Equal(t, http.StatusBadRequest, r.HTTPStatus())

	r = &Response{Code: errors.ErrRequestNotFound.Code}
	assert.Equal(t, http.StatusNotFound, r.HTTPStatus())
}

func TestErrWithData(t *testing.T) {
	r := ErrWithData(errors.ErrGenerationFailed, map[string]string{"text": "sorry"}).WithRequestID("req-1").Stamp()
	assert.False(t, r.IsSuccess())
	assert.Equal(t, "req-1", r.RequestID)
	assert.NotZero(t, r.Timestamp)
	assert.NotNil(t, r.Data)
}
