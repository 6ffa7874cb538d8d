package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"brasa/backend/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names in field errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return domain.PaymentMethod(fl.Field().String()).Valid()
	})
	return v
}

type validationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// bind decodes and validates a JSON body. On failure it writes a 400 and
// returns false.
func bind(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeJSON(r, dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
			return false
		}
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := validate.Struct(dest); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			writeError(w, http.StatusBadRequest, err)
			return false
		}
		details := make([]validationDetail, 0, len(fieldErrors))
		for _, e := range fieldErrors {
			details = append(details, validationDetail{Field: e.Field(), Message: validationMessage(e)})
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "request validation failed",
			"details": details,
		})
		return false
	}
	return true
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must have at least " + e.Param() + " item(s)"
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "payment_method":
		return "Must be one of: cash, instant-transfer, debit-card, credit-card"
	default:
		return "Invalid value"
	}
}
