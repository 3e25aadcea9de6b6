// Package validation checks request and tool arguments before they
// reach the reservation engine.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Struct validates v and reports problems as a validation failure whose
// message names each bad field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &booking.Failure{Kind: booking.KindValidation, Message: "invalid arguments", Err: err}
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fe.Field()+" "+message(fe))
	}
	return &booking.Failure{Kind: booking.KindValidation, Message: strings.Join(parts, "; "), Err: err}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is missing", jsonName(fe.Param()))
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datetime":
		switch fe.Param() {
		case "2006-01-02":
			return "must be a date like 2025-03-14"
		case "15:04":
			return "must be a time like 19:30"
		}
	}
	return "is invalid"
}

// jsonName turns a Go field name such as ReservationID into the
// snake_case key callers send.
func jsonName(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
			b.WriteByte('_')
		}
		b.WriteString(strings.ToLower(string(r)))
	}
	return b.String()
}

// Echo adapts Struct to echo's Validator interface.
type Echo struct{}

// Validate implements echo.Validator.
func (Echo) Validate(i any) error { return Struct(i) }
