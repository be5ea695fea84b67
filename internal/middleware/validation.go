package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	apierrors "keygate/internal/errors"
	"keygate/internal/infrastructure"
)

// DefaultMaxBodySize applies when no body limit is configured
const DefaultMaxBodySize int64 = 1 << 20

// ErrEmptyBody is returned by DecodeJSON when the body is absent or is not
// a JSON object.
var ErrEmptyBody = errors.New("request body must be a JSON object")

// RequestValidator decodes and validates JSON request bodies
type RequestValidator struct {
	validator   *validator.Validate
	logger      *slog.Logger
	maxBodySize int64
}

// NewRequestValidator creates a validator that reads at most maxBodySize
// bytes of any body.
func NewRequestValidator(maxBodySize int64, logger *slog.Logger) *RequestValidator {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}

	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{
		validator:   v,
		logger:      infrastructure.WithComponent(logger, "request_validator"),
		maxBodySize: maxBodySize,
	}
}

// LimitBody caps the request body at the validator's maximum size
func (m *RequestValidator) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// DecodeJSON decodes the request body into dst, which must point to a struct.
// An empty body or a top-level value other than an object yields
// ErrEmptyBody. Oversized bodies surface as *http.MaxBytesError.
func (m *RequestValidator) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}

	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, m.maxBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		m.logger.WarnContext(r.Context(), "failed to read request body",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		return apierrors.InvalidRequestWithError(err)
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed[0] != '{' {
		return ErrEmptyBody
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}
	return nil
}

// ValidateStruct validates a struct and returns validation errors
func (m *RequestValidator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: m.formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// FailedField reports whether err is a validation error on field for rule.
func FailedField(err error, field, rule string) bool {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	details, ok := apiErr.Details.([]apierrors.ValidationError)
	if !ok {
		return false
	}
	for _, d := range details {
		if d.Field == field && d.Rule == rule {
			return true
		}
	}
	return false
}

// formatValidationError formats validation error messages
func (m *RequestValidator) formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
