package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FromBindError turns a JSON decode or binding-tag failure into a 4xx Error.
// target is the value that was being bound; when non-nil its json tags name
// the fields in the details map.
func FromBindError(err error, target any) *Error {
	root := baseStructType(target)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := ValidationFields{}
		for _, fe := range verrs {
			fields.Add(jsonPathFromValidatorError(root, fe), validationMessage(fe.Tag(), fe.Param()))
		}
		return Validation(fields).Wrap(err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := jsonPathFromDotPath(root, typeErr.Field)
		if field == "" {
			field = strings.TrimSpace(typeErr.Field)
		}
		fields := ValidationFields{}
		fields.Add(field, fmt.Sprintf("must be of type %s", typeErr.Type.String()))
		return Validation(fields).Wrap(err)
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return New(http.StatusRequestEntityTooLarge, "Request body too large").Wrap(err)
	}

	if errors.Is(err, io.EOF) {
		return BadRequest("Request body is required").Wrap(err)
	}

	return BadRequest("Invalid JSON body").Wrap(err)
}

func baseStructType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		return t
	}
	return nil
}

func jsonPathFromValidatorError(root reflect.Type, fe validator.FieldError) string {
	// "<Struct>.<Field>[.<Nested>...]"
	namespace := fe.StructNamespace()
	if namespace == "" {
		return lowerFirst(fe.Field())
	}

	parts := strings.Split(namespace, ".")
	if root != nil && len(parts) > 0 && parts[0] == root.Name() {
		parts = parts[1:]
	} else if len(parts) > 1 {
		parts = parts[1:]
	}

	if root == nil {
		for i, p := range parts {
			parts[i] = lowerFirst(p)
		}
		return strings.Join(parts, ".")
	}

	if path := structPathToJSONPath(root, parts); path != "" {
		return path
	}
	return lowerFirst(fe.Field())
}

func jsonPathFromDotPath(root reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}
	return structPathToJSONPath(root, strings.Split(dotPath, "."))
}

func structPathToJSONPath(root reflect.Type, parts []string) string {
	current := root
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		name, index := part, ""
		if i := strings.Index(part, "["); i >= 0 {
			name, index = part[:i], part[i:]
		}

		jsonName := name
		var next reflect.Type

		if current != nil && current.Kind() == reflect.Struct {
			if sf, ok := current.FieldByName(name); ok {
				jsonName = jsonFieldName(sf)
				next = sf.Type
			}
		}

		out = append(out, jsonName+index)
		current = elemStruct(next)
	}

	return strings.Join(out, ".")
}

func jsonFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

func elemStruct(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "pwbytes":
		return "must be at most 72 bytes"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
