package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
)

// Problem types
const (
	TypeValidation      = "/errors/validation"
	TypeInvalidRequest  = "/errors/invalid-request"
	TypeNotFound        = "/errors/not-found"
	TypeMethodNotAllow  = "/errors/method-not-allowed"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"
	TypeStore           = "/errors/store"
)

var problemTypes = map[string]string{
	CodeValidation:      TypeValidation,
	CodeInvalidRequest:  TypeInvalidRequest,
	CodeMissingBody:     TypeInvalidRequest,
	CodeRateLimited:     TypeRateLimit,
	CodePayloadTooLarge: TypePayloadTooLarge,
	CodeStoreFailure:    TypeStore,
}

// ErrorHandler writes every non-success response that is not part of the
// key API's own bodies as a problem document.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler returns an ErrorHandler. includeStack adds goroutine
// stacks to 5xx problems and must stay off in production.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and responds with its problem. 5xx responses log at
// error level and never echo the underlying cause.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", stackTrace())
	}
	problem.Write(w)
}

// ErrorToProblem maps err to a problem for r
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var (
		apiErr   *APIError
		maxBytes *http.MaxBytesError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return h.problem(r, http.StatusGatewayTimeout, TypeTimeout,
			"The request took too long to process and was cancelled")

	case errors.As(err, &maxBytes):
		return h.fromAPIError(r, ErrPayloadTooLarge).WithExtension("limit", maxBytes.Limit)

	case errors.As(err, &apiErr):
		return h.fromAPIError(r, apiErr)

	default:
		return h.problem(r, http.StatusInternalServerError, TypeInternal,
			"An unexpected error occurred while processing your request").
			WithExtension("error_code", CodeInternal)
	}
}

func (h *ErrorHandler) fromAPIError(r *http.Request, apiErr *APIError) *ProblemDetails {
	problemType, ok := problemTypes[apiErr.ErrorCode]
	if !ok {
		problemType = TypeInternal
	}

	problem := h.problem(r, apiErr.StatusCode, problemType, apiErr.Message).
		WithExtension("error_code", apiErr.ErrorCode)
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// problem builds a problem for r tagged with its request id
func (h *ErrorHandler) problem(r *http.Request, status int, problemType, detail string) *ProblemDetails {
	return NewProblemDetails(status, problemType, detail, r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context()))
}

// HandlePanic responds 500 for a recovered panic
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := h.problem(r, http.StatusInternalServerError, TypeInternal, "An unexpected error occurred")
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
		problem.WithExtension("stack", stackTrace())
	}
	problem.Write(w)
}

// NotFound is the router's 404 handler
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.problem(r, http.StatusNotFound, TypeNotFound, "The requested resource was not found").Write(w)
}

// MethodNotAllowed is the router's 405 handler
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.problem(r, http.StatusMethodNotAllowed, TypeMethodNotAllow,
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method)).Write(w)
}

func stackTrace() string {
	buf := make([]byte, 8<<10)
	return string(buf[:runtime.Stack(buf, false)])
}
