package handler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

func TestIndexHandlerResolve(t *testing.T) {
	root := filepath.Join("data", "documents")
	h := NewIndexHandler(nil, root)

	tests := []struct {
		name    string
		dir     string
		want    string
		wantErr bool
	}{
		{"空目录使用根目录", "", root, false},
		{"子目录", "campus", filepath.Join(root, "campus"), false},
		{"规范化路径", "campus/../faq/./", filepath.Join(root, "faq"), false},
		{"父目录", "..", "", true},
		{"越界路径", "../../etc", "", true},
		{"绝对路径", "/etc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.resolve(tt.dir)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrInvalidDirectory.Code))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
