package validator

import "strings"

// ValidationErrors 是一次校验中全部失败字段的翻译结果。
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

// FieldError 单个字段的校验失败，Field 取自 json 标签。
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error 以分号连接全部消息。
func (v *ValidationErrors) Error() string {
	if !v.HasErrors() {
		return ""
	}
	msgs := make([]string, len(v.Errors))
	for i, fe := range v.Errors {
		msgs[i] = fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// HasErrors reports whether any field failed.
func (v *ValidationErrors) HasErrors() bool {
	return v != nil && len(v.Errors) > 0
}

// First 返回第一条消息，没有错误时为空串。
func (v *ValidationErrors) First() string {
	if !v.HasErrors() {
		return ""
	}
	return v.Errors[0].Message
}

// Fields 按出现顺序返回失败的字段名，同一字段只出现一次。
func (v *ValidationErrors) Fields() []string {
	if !v.HasErrors() {
		return nil
	}
	seen := make(map[string]struct{}, len(v.Errors))
	out := make([]string, 0, len(v.Errors))
	for _, fe := range v.Errors {
		if _, ok := seen[fe.Field]; ok {
			continue
		}
		seen[fe.Field] = struct{}{}
		out = append(out, fe.Field)
	}
	return out
}
