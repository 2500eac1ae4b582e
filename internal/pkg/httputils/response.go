// Package httputils provides gin helpers shared by the HTTP handlers.
package httputils

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/id"
	"github.com/kart-io/rag-assistant/pkg/utils/response"
)

const (
	// HeaderXRequestID is the header carrying the request id.
	HeaderXRequestID = "X-Request-ID"

	requestIDKey = "request_id"
)

// RequestID returns a middleware that assigns every request an id, taken
// from the X-Request-ID header when present, otherwise a new ULID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = id.NewULID()
		}
		c.Set(requestIDKey, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}

// GetRequestID returns the request id assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// WriteResponse writes the response to the client.
// It handles both success and error cases, ensuring consistent response format.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	var resp *response.Response
	switch {
	case err != nil:
		resp = response.Err(errors.FromError(err))
		if data != nil {
			resp.Data = data
		}
	default:
		if r, ok := data.(*response.Response); ok {
			resp = r
		} else {
			resp = response.Success(data)
		}
	}

	resp.WithRequestID(GetRequestID(c)).Stamp()
	c.JSON(resp.HTTPStatus(), resp)
}
