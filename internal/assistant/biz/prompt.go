package biz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompt.yaml
var defaultPromptYAML []byte

// PromptTemplate 是带版本的提示词模板，槽位为 role、context、history、question、constraints。
type PromptTemplate struct {
	Version     string   `yaml:"version"`
	Role        string   `yaml:"role"`
	Constraints []string `yaml:"constraints"`
	Layout      string   `yaml:"layout"`

	tmpl *template.Template
}

// PromptData 是一次渲染的输入。
type PromptData struct {
	Context  string
	History  string
	Question string
}

// DefaultPromptTemplate 返回内置模板。
func DefaultPromptTemplate() *PromptTemplate {
	t, err := ParsePromptTemplate(defaultPromptYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in prompt template: %v", err))
	}
	return t
}

// LoadPromptTemplate 从 YAML 文件加载模板，path 为空时返回内置模板。
func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	if path == "" {
		return DefaultPromptTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return ParsePromptTemplate(data)
}

// ParsePromptTemplate 解析 YAML 模板。
func ParsePromptTemplate(data []byte) (*PromptTemplate, error) {
	var t PromptTemplate
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	if strings.TrimSpace(t.Layout) == "" {
		return nil, fmt.Errorf("prompt template %q has an empty layout", t.Version)
	}

	tmpl, err := template.New("prompt").
		Option("missingkey=error").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		Parse(t.Layout)
	if err != nil {
		return nil, fmt.Errorf("parse prompt layout: %w", err)
	}
	t.tmpl = tmpl
	return &t, nil
}

// Render 填充模板。
func (t *PromptTemplate) Render(data PromptData) (string, error) {
	var b strings.Builder
	err := t.tmpl.Execute(&b, struct {
		Role        string
		Constraints []string
		PromptData
	}{
		Role:        t.Role,
		Constraints: t.Constraints,
		PromptData:  data,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.Version, err)
	}
	return b.String(), nil
}
