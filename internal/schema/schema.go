// Package schema checks the shape of incoming JSON payloads before anything
// touches the database. Failures are collected per field.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const MissingField = "Missing data for required field."

// Error lists every failing field keyed by its JSON path, e.g. "items[0].quantity".
type Error struct {
	Fields map[string][]string `json:"errors"`
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate runs the struct's `validate` tags and returns *Error on failure.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{}
	for _, fe := range verrs {
		out.add(fieldPath(fe), message(fe))
	}
	return out
}

// Bind decodes the JSON body into v and validates it. Decoding problems are
// reported the same way as validation failures.
func Bind(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return decodeError(err)
	}
	return Validate(v)
}

func decodeError(err error) error {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		out := &Error{}
		field := ute.Field
		if field == "" {
			field = "_schema"
		}
		out.add(field, fmt.Sprintf("Not a valid %s.", kindName(ute.Type)))
		return out
	}

	var se *json.SyntaxError
	if errors.As(err, &se) {
		out := &Error{}
		out.add("_schema", "Invalid input type.")
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
		out := &Error{}
		out.add("_schema", "Request body must be JSON.")
		return out
	}

	out := &Error{}
	out.add("_schema", "Invalid input type.")
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MissingField
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Longer than maximum length %s.", fe.Param())
		}
		return fmt.Sprintf("Must be less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Shorter than minimum length %s.", fe.Param())
		}
		return fmt.Sprintf("Must be greater than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Bool:
		return "boolean"
	default:
		return t.Kind().String()
	}
}
