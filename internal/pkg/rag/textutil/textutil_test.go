package textutil_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/internal/pkg/rag/textutil"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{name: "相同向量", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, expected: 1},
		{name: "正交向量", a: []float32{1, 0, 0}, b: []float32{0, 1, 0}, expected: 0},
		{name: "相反向量", a: []float32{1, 0, 0}, b: []float32{-1, 0, 0}, expected: -1},
		{name: "空向量", a: []float32{}, b: []float32{}, expected: 0},
		{name: "长度不匹配", a: []float32{1, 2}, b: []float32{1}, expected: 0},
		{name: "零向量", a: []float32{0, 0}, b: []float32{1, 1}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, textutil.CosineSimilarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestSplitTextInvalidArgs(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "size为零", size: 0, overlap: 0},
		{name: "overlap为负", size: 10, overlap: -1},
		{name: "overlap等于size", size: 10, overlap: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := textutil.SplitText("текст", tt.size, tt.overlap)
			assert.Error(t, err)
		})
	}
}

func TestSplitTextSentenceBoundary(t *testing.T) {
	text := "Первое предложение тут. Второе предложение здесь и оно длиннее."
	chunks, err := textutil.SplitText(text, 30, 5)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "Первое предложение тут.", chunks[0])
}

func TestSplitTextDropsBlank(t *testing.T) {
	chunks, err := textutil.SplitText("   \n\t  ", 4, 1)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = textutil.SplitText("", 4, 1)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func corpus() string {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Абитуриент подаёт документы в приёмную комиссию. ")
		b.WriteString("Срок подачи заканчивается летом")
		if i%3 == 0 {
			b.WriteString(". ")
		} else {
			b.WriteString(" и продлевается ")
		}
	}
	return b.String()
}

func TestSplitSpansProperties(t *testing.T) {
	runes := []rune(corpus())
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "无重叠", size: 50, overlap: 0},
		{name: "常规重叠", size: 100, overlap: 20},
		{name: "大重叠", size: 100, overlap: 90},
		{name: "最小窗口", size: 1, overlap: 0},
		{name: "窗口大于文本", size: 100000, overlap: 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spans, err := textutil.SplitSpans(runes, tc.size, tc.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, spans)

			assert.Equal(t, 0, spans[0].Start)
			assert.Equal(t, len(runes), spans[len(spans)-1].End)

			var rebuilt []rune
			prevEnd := 0
			for i, s := range spans {
				assert.LessOrEqual(t, s.End-s.Start, tc.size, "span %d exceeds size", i)
				assert.Greater(t, s.End, s.Start)
				if i > 0 {
					assert.Greater(t, s.Start, spans[i-1].Start, "window must advance")
					assert.LessOrEqual(t, s.Start, prevEnd, "gap between spans")
					assert.GreaterOrEqual(t, s.Start, prevEnd-tc.overlap, "overlap larger than declared")
				}
				rebuilt = append(rebuilt, runes[prevEnd:s.End]...)
				prevEnd = s.End
			}
			assert.Equal(t, string(runes), string(rebuilt))
		})
	}
}

func TestSplitTextChunkSizeBound(t *testing.T) {
	chunks, err := textutil.SplitText(corpus(), 120, 30)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 120)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "При...", textutil.Preview("Привет", 3))
	assert.Equal(t, "да...", textutil.Preview("да", 200))
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	got, err := textutil.DecodeVector(textutil.EncodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = textutil.DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
