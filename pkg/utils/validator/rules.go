package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagFeedback  = "feedback"  // 1 (helpful) or -1 (not helpful)
	TagNotBlank  = "notblank"  // Contains at least one non-space character
	TagSessionID = "sessionid" // Letters, digits, '-', '_' and ':', 1-128 chars
)

var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9_:\-]{1,128}$`)

// RegisterRules registers the custom rules on v. It is also used to extend
// gin's default binding engine.
func RegisterRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		TagFeedback:  validateFeedback,
		TagNotBlank:  validateNotBlank,
		TagSessionID: validateSessionID,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// validateFeedback accepts only 1 and -1.
func validateFeedback(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := fl.Field().Int()
		return n == 1 || n == -1
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateSessionID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return sessionIDRegex.MatchString(value)
}
