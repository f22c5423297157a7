package api

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"

	"github.com/go-playground/validator/v10"
)

var slugRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`) //nolint:gochecknoglobals

// validateSlug проверяет, что поле похоже на идентификатор каталога: латинские буквы, цифры, - и _.
// Регистр не меняется, существование идентификатора проверяет каталог.
func validateSlug(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return slugRe.MatchString(str)
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("validator registration: unexpected engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("slug", validateSlug); err != nil {
		return fmt.Errorf("validator registration: %s", err.Error())
	}
	return nil
}
