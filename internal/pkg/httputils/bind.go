package httputils

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/json"
	"github.com/kart-io/rag-assistant/pkg/utils/validator"
)

// ShouldBindAndValidate decodes the JSON body into v and validates it with
// the global validator. Failures are returned as ErrBind or ErrInvalidParam
// carrying the (translated) reason.
func ShouldBindAndValidate(c *gin.Context, v interface{}) error {
	if err := json.NewDecoder(c.Request.Body).Decode(v); err != nil {
		return errors.ErrBind.WithMessage("invalid request body: " + err.Error())
	}
	return Validate(c, v)
}

// Validate validates v using the language preferred by the request.
func Validate(c *gin.Context, v interface{}) error {
	verr := validator.StructWithLang(v, Lang(c))
	if verr == nil || !verr.HasErrors() {
		return nil
	}
	return errors.ErrInvalidParam.WithMessage(verr.Error())
}

// Lang returns the language preference from the lang query parameter or
// the Accept-Language header.
func Lang(c *gin.Context) string {
	lang := c.Query("lang")
	if lang == "" {
		lang = c.GetHeader("Accept-Language")
		if i := strings.IndexAny(lang, ",;"); i >= 0 {
			lang = lang[:i]
		}
	}
	lang = strings.ToLower(strings.TrimSpace(lang))

	switch {
	case strings.HasPrefix(lang, validator.LangRU):
		return validator.LangRU
	case strings.HasPrefix(lang, validator.LangZH):
		return validator.LangZH
	default:
		return validator.LangEN
	}
}
