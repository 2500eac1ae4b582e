package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/rag-assistant/pkg/options/tracing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *options.Options)
		wantErr bool
	}{
		{name: "关闭时不导出", mutate: func(o *options.Options) {}},
		{name: "noop 导出器", mutate: func(o *options.Options) {
			o.Enabled = true
			o.Exporter = options.ExporterNoop
		}},
		{name: "非法导出器", mutate: func(o *options.Options) {
			o.Enabled = true
			o.Exporter = "zipkin"
		}, wantErr: true},
		{name: "采样率越界", mutate: func(o *options.Options) {
			o.Enabled = true
			o.Exporter = options.ExporterNoop
			o.SamplerRatio = 2
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options.NewOptions()
			tt.mutate(opts)
			p, err := NewProvider(context.Background(), opts, "test")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, p.Shutdown(context.Background()))
		})
	}
}

func TestSpanHelpers(t *testing.T) {
	p, err := NewProvider(context.Background(), &options.Options{
		Enabled:      true,
		ServiceName:  "test",
		Exporter:     options.ExporterNoop,
		SamplerRatio: 1,
	}, "test")
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	ctx, span := StartSpan(context.Background(), "test", "unit")
	defer span.End()

	assert.Len(t, TraceIDFromContext(ctx), 32)
	assert.Empty(t, TraceIDFromContext(context.Background()))
	RecordError(ctx, errors.New("boom"))
	RecordError(ctx, nil)
}
