package biz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPromptTemplate(t *testing.T) {
	tmpl := DefaultPromptTemplate()
	assert.NotEmpty(t, tmpl.Version)
	assert.Len(t, tmpl.Constraints, 5)

	t.Run("无历史", func(t *testing.T) {
		out, err := tmpl.Render(PromptData{Context: "[ДОКУМЕНТ 1]", Question: "Что такое БВИ?"})
		require.NoError(t, err)
		assert.Contains(t, out, "Ты — умный помощник приёмной комиссии университета.\n\nКОНТЕКСТ ИЗ ДОКУМЕНТОВ:\n[ДОКУМЕНТ 1]\n\nТЕКУЩИЙ ВОПРОС ПОЛЬЗОВАТЕЛЯ:\nЧто такое БВИ?")
		assert.NotContains(t, out, "ИСТОРИЯ ДИАЛОГА")
		assert.Contains(t, out, "ВАЖНО:\n1. Отвечай только на основе предоставленного контекста\n2.")
		assert.Contains(t, out, "5. Отвечай кратко и структурированно")
	})

	t.Run("带历史", func(t *testing.T) {
		out, err := tmpl.Render(PromptData{Context: "ctx", History: "Пользователь: привет", Question: "q"})
		require.NoError(t, err)
		assert.Contains(t, out, "ИСТОРИЯ ДИАЛОГА:\nПользователь: привет\n\nТЕКУЩИЙ ВОПРОС ПОЛЬЗОВАТЕЛЯ:\nq")
	})
}

func TestLoadPromptTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "test-1"
role: "Ты бот."
constraints: ["Коротко"]
layout: "{{.Role}}|{{.Context}}|{{.History}}|{{.Question}}|{{range .Constraints}}{{.}}{{end}}"
`), 0o644))

	tmpl, err := LoadPromptTemplate(path)
	require.NoError(t, err)
	out, err := tmpl.Render(PromptData{Context: "c", History: "h", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "Ты бот.|c|h|q|Коротко", out)

	def, err := LoadPromptTemplate("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPromptTemplate().Version, def.Version)
}

func TestParsePromptTemplateErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "空布局", data: `version: "1"`},
		{name: "模板语法错误", data: `layout: "{{.Role"`},
		{name: "YAML 错误", data: "layout: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePromptTemplate([]byte(tt.data))
			assert.Error(t, err)
		})
	}

	_, err := LoadPromptTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
