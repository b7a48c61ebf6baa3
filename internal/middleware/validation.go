package middleware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "brewsignal/internal/errors"
)

// Validator decodes JSON request bodies and validates them against struct tags
type Validator struct {
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewValidator creates a Validator that reports fields by their JSON names
func NewValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate:     v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
	}
}

// Struct validates s and returns a VALIDATION_FAILED APIError listing every bad field
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fieldPath(fe),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// DecodeJSON decodes the body into dst and validates it.
// On failure the problem response is already written and false is returned.
func (v *Validator) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		v.logger.DebugContext(r.Context(), "request body rejected",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		v.errorHandler.HandleError(w, r, decodeError(err))
		return false
	}
	if err := v.Struct(dst); err != nil {
		v.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// ContentTypeJSON rejects bodies that are not sent as application/json
func ContentTypeJSON(errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			contentType := r.Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, "application/json") {
				errorHandler.HandleError(w, r, apierrors.NewWithDetails(
					http.StatusUnsupportedMediaType,
					apierrors.CodeUnsupportedMediaType,
					"Content-Type must be application/json",
					map[string]interface{}{"content_type": contentType},
				))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierrors.NewWithDetails(
			http.StatusRequestEntityTooLarge,
			apierrors.CodePayloadTooLarge,
			"Request body exceeds maximum allowed size",
			map[string]interface{}{"max_size": tooLarge.Limit},
		)
	}
	if errors.Is(err, io.EOF) {
		return apierrors.New(http.StatusBadRequest, apierrors.CodeInvalidRequest, "Request body is empty")
	}
	return apierrors.InvalidRequestWithError(err)
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationError(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
