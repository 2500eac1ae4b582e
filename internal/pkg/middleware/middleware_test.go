package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kart-io/rag-assistant/internal/pkg/httputils"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/json"
	"github.com/kart-io/rag-assistant/pkg/utils/response"
)

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httputils.RequestID(), Recovery(), Logger())

	var recovered interface{}
	r.Use(RecoveryWithHandler(func(_ *gin.Context, err interface{}, _ []byte) { recovered = err }))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrInternal.Code, resp.Code)
	assert.Equal(t, "panic: boom", resp.Message)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "boom", recovered)
}

func TestTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := gin.New()
	r.Use(Tracing("/metrics"))
	r.GET("/v1/index/count", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/v1/index/count", "/v1/fail", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /v1/index/count", spans[0].Name())
	assert.Equal(t, "GET /v1/fail", spans[1].Name())
	assert.Equal(t, "Error", spans[1].Status().Code.String())
}
