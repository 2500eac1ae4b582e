package httputils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/validator"
)

type feedbackBody struct {
	RequestID uint64 `json:"request_id" validate:"required"`
	Value     int    `json:"value" validate:"feedback"`
}

func TestShouldBindAndValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		body string
		want *errors.Errno
	}{
		{"合法请求", `{"request_id": 7, "value": -1}`, nil},
		{"非法JSON", `{"request_id":`, errors.ErrBind},
		{"反馈值非法", `{"request_id": 7, "value": 2}`, errors.ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var body feedbackBody
			err := ShouldBindAndValidate(c, &body)
			if tt.want == nil {
				assert.NoError(t, err)
				assert.Equal(t, -1, body.Value)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLang(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		query  string
		header string
		want   string
	}{
		{"默认英文", "", "", validator.LangEN},
		{"俄语请求头", "", "ru-RU,ru;q=0.9,en;q=0.8", validator.LangRU},
		{"中文请求头", "", "zh-CN,zh;q=0.9", validator.LangZH},
		{"查询参数优先", "?lang=zh", "ru-RU", validator.LangZH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				c.Request.Header.Set("Accept-Language", tt.header)
			}
			assert.Equal(t, tt.want, Lang(c))
		})
	}
}
