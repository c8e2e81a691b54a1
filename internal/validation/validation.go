// Package validation checks form drafts before they are submitted. Every
// check is a pure function: the result is a field to message map and an
// empty map means the draft is valid.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Errors maps a form field name to a human-readable message.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

var (
	phonePattern   = regexp.MustCompile(`^\+?\d{10,15}$`)
	logoURLPattern = regexp.MustCompile(`(?i)^https?://.+\.(png|jpg|jpeg|gif)$`)
	logoDataPrefix = regexp.MustCompile(`^data:image/(png|jpeg);base64,`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("logo", func(fl validator.FieldLevel) bool {
		return isLogoReference(strings.TrimSpace(fl.Field().String()))
	})

	// Report fields by their form name rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// isLogoReference accepts an image URL or an embedded PNG/JPEG data URL.
func isLogoReference(s string) bool {
	if strings.HasPrefix(s, "data:") {
		return logoDataPrefix.MatchString(s)
	}
	return logoURLPattern.MatchString(s)
}

// check runs the tag rules on rules and fills errs using messages keyed by
// "field.tag" (falling back to "field").
func check(rules any, messages map[string]string, errs Errors) {
	err := validate.Struct(rules)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["form"] = err.Error()
		return
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		if msg, ok := messages[field+"."+fe.Tag()]; ok {
			errs[field] = msg
			continue
		}
		if msg, ok := messages[field]; ok {
			errs[field] = msg
			continue
		}
		errs[field] = field + " is invalid"
	}
}
