package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/rag-assistant/internal/pkg/httputils"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

// PanicHandler 定义 panic 处理器类型。
type PanicHandler func(c *gin.Context, err interface{}, stack []byte)

// Recovery returns a middleware that recovers from panics.
func Recovery() gin.HandlerFunc {
	return RecoveryWithHandler(nil)
}

// RecoveryWithHandler 捕获 panic，记录完整堆栈并返回统一错误响应。
// 堆栈只写入日志，不返回给客户端。
func RecoveryWithHandler(onPanic PanicHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.Errorw("panic recovered",
					"panic", fmt.Sprint(r),
					"stack_trace", string(stack),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", httputils.GetRequestID(c),
				)
				if onPanic != nil {
					onPanic(c, r, stack)
				}
				httputils.WriteResponse(c, errors.ErrInternal.WithMessage(fmt.Sprintf("panic: %v", r)), nil)
				c.Abort()
			}
		}()
		c.Next()
	}
}
