// Package textutil 提供 RAG 相关的文本处理工具函数。
package textutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// sentenceBreak 是切分时优先寻找的句子边界。
const sentenceBreak = ". "

// Span 表示切分窗口在原文中的 rune 区间 [Start, End)。
type Span struct {
	Start int
	End   int
}

// SplitSpans 计算滑动窗口切分的区间，不做裁剪。
// size 必须大于 0，overlap 必须满足 0 <= overlap < size。
//
// 窗口未到文本末尾时，在窗口内向后查找最后一个 ". "，
// 位置超过窗口一半则在句号之后切断。下一个窗口从 end-overlap 开始，
// 若不能前进则从 end 开始。
func SplitSpans(runes []rune, size, overlap int) ([]Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	n := len(runes)
	var spans []Span
	for start := 0; start < n; {
		end := start + size
		if end < n {
			if idx := lastIndexRunes(runes[start:end], sentenceBreak); idx > size/2 {
				end = start + idx + 1
			}
		} else {
			end = n
		}
		spans = append(spans, Span{Start: start, End: end})
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return spans, nil
}

// SplitText 将文本切分为相互重叠的片段，丢弃裁剪后为空的片段。
func SplitText(text string, size, overlap int) ([]string, error) {
	runes := []rune(text)
	spans, err := SplitSpans(runes, size, overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(spans))
	for _, s := range spans {
		chunk := strings.TrimSpace(string(runes[s.Start:s.End]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func lastIndexRunes(window []rune, sep string) int {
	pattern := []rune(sep)
	for i := len(window) - len(pattern); i >= 0; i-- {
		match := true
		for j, r := range pattern {
			if window[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// CosineSimilarity 计算两个向量的余弦相似度。
// 返回值范围为 [-1, 1]，长度不一致或零向量返回 0。
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// Preview 返回前 maxLen 个字符并追加 "..."。
func Preview(s string, maxLen int) string {
	return TruncateString(s, maxLen) + "..."
}

// EncodeVector 将向量编码为小端 float32 字节序列。
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector 解码 EncodeVector 生成的字节序列。
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
