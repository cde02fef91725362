package rpc

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/kkkkikiki/training/internal/apperr"
)

const notBlankTag = "notblank"

// Validator checks request messages against their validate tags.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator creates a validator that reports JSON field names with
// English messages.
func NewValidator() *Validator {
	v := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if str, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(str) != ""
		}
		return false
	})
	_ = v.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string { return "this field cannot be blank" },
	)

	return &Validator{validate: v, translator: translator}
}

// Check validates msg, a pointer to a request struct.
func (v *Validator) Check(msg any) error {
	err := v.validate.Struct(msg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(apperr.ReasonInvalidInput, "%v", err)
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Error: fe.Translate(v.translator)})
	}
	return apperr.InvalidFields(fields...)
}
