package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		switch fe.Tag() {
		case "required":
			details[field] = fmt.Sprintf("Field '%s' is required", field)
		case "email":
			details[field] = fmt.Sprintf("Field '%s' must be a valid email address", field)
		case "uuid":
			details[field] = fmt.Sprintf("Field '%s' must be a valid UUID", field)
		case "min":
			if fe.Kind() == reflect.String {
				details[field] = fmt.Sprintf("Field '%s' must be at least %s characters long", field, fe.Param())
			} else {
				details[field] = fmt.Sprintf("Field '%s' must be at least %s", field, fe.Param())
			}
		case "max":
			if fe.Kind() == reflect.String {
				details[field] = fmt.Sprintf("Field '%s' must be at most %s characters long", field, fe.Param())
			} else {
				details[field] = fmt.Sprintf("Field '%s' must be at most %s", field, fe.Param())
			}
		case "money":
			details[field] = fmt.Sprintf("Field '%s' must be a non-negative amount with at most 2 decimal places", field)
		case "oneof":
			details[field] = fmt.Sprintf("Field '%s' must be one of: %s", field, fe.Param())
		default:
			details[field] = fmt.Sprintf("Field '%s' failed on the '%s' rule", field, fe.Tag())
		}
	}
	return details
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Decimals are validated through their string form.
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = validate.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative() && d.Equal(d.Round(2))
	})
	return validate
}

// decodeAndValidate decodes a JSON body into dst and validates it. On failure
// it writes the response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		if errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
			return false
		}
		log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		return false
	}
	return true
}
