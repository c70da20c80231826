package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainvalidate "github.com/nkiryanov/identity/internal/validate"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(useJSONTagNames)
	_ = v.RegisterValidation("username", validateUserName)
	_ = v.RegisterValidation("userpassword", validateUserPassword)

	return v
}

// Report on json tag instead of struct field name
// Look at documentation of 'RegisterTagNameFunc' for more details
func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateUserName(fl validator.FieldLevel) bool {
	return domainvalidate.Name(fl.Field().String()) == nil
}

func validateUserPassword(fl validator.FieldLevel) bool {
	return domainvalidate.Password(fl.Field().String()) == nil
}
