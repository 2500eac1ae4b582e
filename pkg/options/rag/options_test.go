package rag

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *AssistantOptions)
		wantErr int
	}{
		{name: "默认值有效", mutate: func(o *AssistantOptions) {}},
		{name: "阈值为 1 有效", mutate: func(o *AssistantOptions) { o.RelevanceThreshold = 1 }},
		{name: "阈值越界", mutate: func(o *AssistantOptions) { o.RelevanceThreshold = 1.2 }, wantErr: 1},
		{name: "topK 为 0", mutate: func(o *AssistantOptions) { o.TopK = 0 }, wantErr: 1},
		{name: "会话不过期有效", mutate: func(o *AssistantOptions) { o.SessionTTL = 0 }},
		{name: "会话过期时间为负", mutate: func(o *AssistantOptions) { o.SessionTTL = -time.Second }, wantErr: 1},
		{name: "温度与存储同时非法", mutate: func(o *AssistantOptions) {
			o.Temperature = -0.1
			o.SessionStore = "etcd"
		}, wantErr: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewAssistantOptions()
			tt.mutate(o)
			assert.Len(t, o.Validate(), tt.wantErr)
		})
	}
}

func TestIngestOptionsValidate(t *testing.T) {
	o := NewIngestOptions()
	assert.Equal(t, 500, o.ChunkSize)
	assert.Equal(t, 50, o.ChunkOverlap)
	assert.Empty(t, o.Validate())

	o.ChunkOverlap = o.ChunkSize
	assert.Len(t, o.Validate(), 1, "重叠必须小于块大小")
}

func TestIndexOptionsValidate(t *testing.T) {
	o := NewIndexOptions()
	assert.Empty(t, o.Validate())

	o.Backend = "faiss"
	o.BatchSize = 0
	assert.Len(t, o.Validate(), 2)
}

func TestAddFlagsWithPrefix(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	a := NewAssistantOptions()
	a.AddFlags(fs)
	NewIngestOptions().AddFlags(fs, "x")

	require.NoError(t, fs.Parse([]string{"--assistant.top-k=3", "--assistant.abbreviations=ВУЗ=высшее учебное заведение"}))
	assert.Equal(t, 3, a.TopK)
	assert.Equal(t, "высшее учебное заведение", a.Abbreviations["ВУЗ"])
	assert.NotNil(t, fs.Lookup("x.ingest.chunk-size"))
}

func TestAssistantComplete(t *testing.T) {
	o := NewAssistantOptions()
	o.HistoryWindow = 20
	require.NoError(t, o.Complete())
	assert.Equal(t, o.HistoryLimit, o.HistoryWindow)
}
