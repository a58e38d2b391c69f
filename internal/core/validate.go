package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

// Validator checks client payloads and reports field-level problems using
// the JSON field names.
type Validator struct {
	validate    *validator.Validate
	phoneRegion string
}

// NewValidator builds a validator. Phone numbers without an international
// prefix are interpreted in phoneRegion (e.g. "CD").
func NewValidator(phoneRegion string) *Validator {
	v := &Validator{
		validate:    validator.New(),
		phoneRegion: strings.ToUpper(phoneRegion),
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		_, err := ParseAmount(fl.Field().String())
		return err == nil
	})
	_ = v.validate.RegisterValidation("money_positive", func(fl validator.FieldLevel) bool {
		d, err := ParseAmount(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return v.ValidPhone(fl.Field().String())
	})

	return v
}

// ValidPhone reports whether s is a dialable number for the configured region.
func (v *Validator) ValidPhone(s string) bool {
	num, err := libphonenumber.Parse(s, v.phoneRegion)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}

// FormatPhone returns s in E.164 form, or s unchanged when it cannot be parsed.
func (v *Validator) FormatPhone(s string) string {
	num, err := libphonenumber.Parse(s, v.phoneRegion)
	if err != nil {
		return s
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

// Struct normalizes s when it supports it, then validates it. s must be a
// pointer to a struct. Failures are returned as *ValidationError.
func (v *Validator) Struct(s any) error {
	if n, ok := s.(normalizer); ok {
		n.Normalize()
	}
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "champ obligatoire"
	case "email":
		return "adresse e-mail invalide"
	case "phone":
		return "numéro de téléphone invalide"
	case "url":
		return "URL invalide"
	case "money":
		return "montant invalide"
	case "money_positive":
		return "le montant doit être un nombre supérieur à zéro, avec au plus 2 décimales"
	case "oneof":
		return fmt.Sprintf("valeur non autorisée (attendu: %s)", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("au moins %s caractère(s)", fe.Param())
		}
		return fmt.Sprintf("doit être supérieur ou égal à %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("au plus %s caractères", fe.Param())
		}
		return fmt.Sprintf("doit être inférieur ou égal à %s", fe.Param())
	case "gt":
		return fmt.Sprintf("doit être supérieur à %s", fe.Param())
	default:
		return fmt.Sprintf("échec de la règle %s", fe.Tag())
	}
}
