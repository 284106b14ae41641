package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies application errors so the HTTP layer can map them to
// status codes without inspecting message strings.
type Kind string

const (
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	KindMisconfigured     Kind = "MISCONFIGURED"
	KindQuotaExhausted    Kind = "QUOTA_EXHAUSTED"
	KindIngestionFailed   Kind = "INGESTION_FAILED"
	KindGenerationFailed  Kind = "GENERATION_FAILED"
	KindNotFound          Kind = "NOT_FOUND"
)

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// HTTPStatus maps an error kind to its HTTP status code.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput, KindUnsupportedFormat:
		return fiber.StatusBadRequest
	case KindQuotaExhausted:
		return fiber.StatusTooManyRequests
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
