package api

import (
	"errors"
	"log/slog"
	"net/http"

	"perfreview/internal/domain/apperr"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// FailError writes err as an error envelope. Anything that is not an
// *apperr.Error, or is an internal one, is logged and answered with an
// opaque 500.
func FailError(w http.ResponseWriter, err error, requestID string) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		slog.Error("request failed", "requestId", requestID, "err", err)
		Fail(w, http.StatusInternalServerError, string(apperr.KindInternal), "internal server error", requestID)
		return
	}
	if len(appErr.Fields) > 0 {
		FailWithDetails(w, StatusFor(appErr.Kind), string(appErr.Kind), appErr.Message, map[string]any{"fields": appErr.Fields}, requestID)
		return
	}
	Fail(w, StatusFor(appErr.Kind), string(appErr.Kind), appErr.Message, requestID)
}
