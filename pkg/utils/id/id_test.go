package id

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	gen := NewULIDGenerator(WithClock(func() time.Time { return fixed }))

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = gen.Generate()
		require.Len(t, ids[i], 26)
	}
	assert.True(t, sort.StringsAreSorted(ids), "同一毫秒内单调递增")

	got, err := ULIDTime(ids[0])
	require.NoError(t, err)
	assert.True(t, got.Equal(fixed))
}

func TestULIDDeterministicReader(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	newGen := func() *ULIDGenerator {
		return NewULIDGenerator(
			WithULIDReader(bytes.NewReader(bytes.Repeat([]byte{0x42}, 64))),
			WithClock(func() time.Time { return fixed }),
		)
	}
	assert.Equal(t, newGen().Generate(), newGen().Generate())
}

func TestIsValidULID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"默认生成器", NewULID(), true},
		{"小写", "01arz3ndektsv4rrffq69g5fav", true},
		{"长度不足", "01ARZ3NDEK", false},
		{"非法字符", "01ARZ3NDEKTSV4RRFFQ69G5FA!", false},
		{"会话前缀", "tg:123456", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidULID(tt.in))
		})
	}
}
