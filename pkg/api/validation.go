package api

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pethealth/pethealth/pkg/httputil"
	"github.com/pethealth/pethealth/pkg/pets"
)

const msgInvalidBirthDate = "birthDate must be a valid ISO 8601 date (YYYY-MM-DD)"

// validate is shared; validator caches struct metadata per type
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := pets.ParseDate(fl.Field().String())
		return err == nil
	})

	return v
}

// ValidationError carries one message per failing field. Message is the
// first failure in field order.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// validateRequest returns nil or a *ValidationError
func validateRequest(req interface{}) *ValidationError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Message: err.Error()}
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		if out.Message == "" {
			out.Message = msg
		}
		if _, seen := out.Fields[fe.Field()]; !seen {
			out.Fields[fe.Field()] = msg
		}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s should not be empty", field)
	case "email":
		return fmt.Sprintf("%s must be an email", field)
	case "uuid4":
		return fmt.Sprintf("%s must be a UUID", field)
	case "isodate":
		return msgInvalidBirthDate
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// decodeAndValidate parses a strict JSON body into req and validates it,
// writing a 400 on failure
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if !httputil.ParseJSONOrError(w, r, req) {
		return false
	}
	if verr := validateRequest(req); verr != nil {
		httputil.WriteDetailedError(w, http.StatusBadRequest, verr.Message, verr.Fields)
		return false
	}
	return true
}
