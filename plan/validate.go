package plan

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/compgraph/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their YAML key.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

func invalid(reason string) error {
	return errors.InvalidConfig("plan: " + reason)
}

func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return invalid(err.Error())
	}

	fields := make(map[string]string, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		path := e.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		message := describe(e)
		fields[path] = message
		messages = append(messages, path+" "+message)
	}
	return errors.InvalidConfig("plan: "+strings.Join(messages, "; ")).WithDetail("fields", fields)
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_without":
		return "is required"
	case "excluded_with":
		return "cannot be combined with " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "len":
		return "must have " + e.Param() + " entries"
	case "min":
		return "must have at least " + e.Param() + " entries"
	default:
		return "is invalid"
	}
}
