package biz

import (
	"strings"
)

// 对话角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultHistoryLimit 是每个会话保留的最大对话条数（5 轮问答）。
const DefaultHistoryLimit = 10

// Turn 是一条对话。
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History 是有上限的对话历史，超出上限时淘汰最早的条目。
type History struct {
	limit int
	turns []Turn
}

// NewHistory 创建对话历史，limit <= 0 使用 DefaultHistoryLimit。
func NewHistory(limit int, turns ...Turn) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	h := &History{limit: limit}
	h.Append(turns...)
	return h
}

// Append 追加对话并按上限淘汰。
func (h *History) Append(turns ...Turn) {
	h.turns = append(h.turns, turns...)
	if over := len(h.turns) - h.limit; over > 0 {
		h.turns = append([]Turn(nil), h.turns[over:]...)
	}
}

// Turns 返回历史副本。
func (h *History) Turns() []Turn {
	return append([]Turn(nil), h.turns...)
}

// Len 返回条数。
func (h *History) Len() int {
	return len(h.turns)
}

// Clear 清空历史。
func (h *History) Clear() {
	h.turns = nil
}

// lastTurns 返回最近 n 条。
func lastTurns(turns []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}

// RenderTranscript 把对话渲染为 "Пользователь: ..." / "Ассистент: ..." 文本。
func RenderTranscript(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		if t.Role == RoleUser {
			b.WriteString("Пользователь: ")
		} else {
			b.WriteString("Ассистент: ")
		}
		b.WriteString(t.Content)
	}
	return b.String()
}
