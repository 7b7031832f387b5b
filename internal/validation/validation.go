// Package validation wraps go-playground/validator for request structs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	// Money fields validate like numbers: `validate:"gt=0"`.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Error is a failed validation. It matches both its base error and the
// underlying validator.ValidationErrors.
type Error struct {
	Base   error
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%v: %v", e.Base, e.cause)
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%v: %s", e.Base, strings.Join(parts, ", "))
}

func (e *Error) Unwrap() []error {
	return []error{e.Base, e.cause}
}

// Struct validates s against its `validate` tags. The returned error lists
// every failing field as "field: tag" and wraps base so callers can match it
// with errors.Is.
func Struct(base error, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	return &Error{Base: base, Fields: Errors(err), cause: err}
}

// Errors maps each failing field (dotted JSON path without the root struct)
// to the tag that rejected it. Non-validation errors yield nil.
func Errors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make(map[string]string, len(validationErrors))
	for _, ve := range validationErrors {
		ns := ve.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		out[ns] = ve.Tag()
	}
	return out
}
