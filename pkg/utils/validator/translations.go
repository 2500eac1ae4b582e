package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var customTranslations = map[string]map[string]string{
	LangEN: {
		TagFeedback:  "{0} must be 1 or -1",
		TagNotBlank:  "{0} must not be blank",
		TagSessionID: "{0} may contain only letters, digits, '-', '_' and ':' (1-128 characters)",
	},
	LangRU: {
		TagFeedback:  "{0} должен быть равен 1 или -1",
		TagNotBlank:  "{0} не может быть пустым",
		TagSessionID: "{0} может содержать только буквы, цифры, '-', '_' и ':' (1-128 символов)",
	},
	LangZH: {
		TagFeedback:  "{0}只能为1或-1",
		TagNotBlank:  "{0}不能为空",
		TagSessionID: "{0}只能包含字母、数字、'-'、'_'和':'（1-128个字符）",
	},
}

// registerCustomTranslations registers translations for custom validation rules.
func (v *Validator) registerCustomTranslations() {
	for lang, messages := range customTranslations {
		trans := v.GetTranslator(lang)
		if trans == nil {
			continue
		}
		for tag, message := range messages {
			registerTranslation(v.validate, trans, tag, message)
		}
	}
}

// registerTranslation registers a single translation.
func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}
