package helpers

import (
	"log/slog"
	"net/http"

	"eventra/internal/domain"
)

// StatusFor maps an error to its HTTP status and envelope code. Business-rule
// conflicts (no seats, already joined, ...) are reported as 400.
func StatusFor(err error) (int, string) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest, ErrCodeBadRequest
	case domain.KindConflict:
		return http.StatusBadRequest, ErrCodeConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case domain.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case domain.KindInvalidTransition:
		return http.StatusConflict, ErrCodeInvalidTransition
	case domain.KindUpstream:
		return http.StatusBadGateway, ErrCodeUpstream
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// WriteDomainError writes err in the error envelope. Internal errors are logged
// and their message is not exposed.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		msg = "internal server error"
	}
	WriteJSONError(w, status, code, msg)
}
