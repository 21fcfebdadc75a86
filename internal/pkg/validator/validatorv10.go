package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
//
// Keys are field names in snake_case to match typical JSON conventions.
type V10ValidationError map[string]string

// Error implements the error interface.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerCustomRules(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	return v.translate(v.validate.Struct(data))
}

// ValidateVar validates a single value against a tag expression such as "required,digits=6".
func (v *V10Validator) ValidateVar(field any, tag string) error {
	return v.translate(v.validate.Var(field, tag))
}

func (v *V10Validator) translate(err error) error {
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	errV10 := make(V10ValidationError)
	for _, fe := range validateErrs {
		field := fe.Field()
		if field == "" {
			field = "value"
		}
		errV10[lo.SnakeCase(field)] = fe.Translate(v.translator)
	}

	return errV10
}

// customRule is a validation tag with its English message; the message may
// reference {0} for the field and {1} for the tag parameter.
type customRule struct {
	tag     string
	message string
	fn      validator.Func
}

var customRules = []customRule{
	{tag: "digits", message: "{0} must be exactly {1} digits", fn: validateDigits},
}

// validateDigits accepts a string of exactly param ASCII digits.
func validateDigits(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(fl.Param())
	if err != nil || n <= 0 || len(s) != n {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

func registerCustomRules(validate *validator.Validate, trans ut.Translator) error {
	for _, rule := range customRules {
		if err := validate.RegisterValidation(rule.tag, rule.fn); err != nil {
			return fmt.Errorf("validator: register %s: %w", rule.tag, err)
		}

		err := validate.RegisterTranslation(rule.tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(rule.tag, rule.message, false)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				msg, err := ut.T(fe.Tag(), fe.Field(), fe.Param())
				if err != nil {
					slog.Warn("validator: missing translation", "tag", fe.Tag(), "error", err)
					return fe.Error()
				}
				return msg
			},
		)
		if err != nil {
			return fmt.Errorf("validator: translate %s: %w", rule.tag, err)
		}
	}
	return nil
}
