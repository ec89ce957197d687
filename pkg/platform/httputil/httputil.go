// Package httputil centralizes JSON response writing and domain error
// translation so every handler produces the same envelopes.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "landregistry/pkg/domain-errors"
)

// statusByCode maps domain error codes to HTTP statuses. Codes not listed
// fall through to 500.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:              http.StatusBadRequest,
	dErrors.CodeInvalidInput:            http.StatusBadRequest,
	dErrors.CodeMissingRequiredDocument: http.StatusBadRequest,
	dErrors.CodeUnauthorized:            http.StatusUnauthorized,
	dErrors.CodeKYCNotVerified:          http.StatusForbidden,
	dErrors.CodeNotAssignedInspector:    http.StatusForbidden,
	dErrors.CodeNotFound:                http.StatusNotFound,
	dErrors.CodeDuplicateActiveCase:     http.StatusConflict,
	dErrors.CodeInvalidTransition:       http.StatusConflict,
	dErrors.CodeReportAlreadySubmitted:  http.StatusConflict,
	dErrors.CodeCaseClosed:              http.StatusConflict,
	dErrors.CodeConflict:                http.StatusConflict,
	dErrors.CodeUnknownInspector:        http.StatusUnprocessableEntity,
	dErrors.CodeStorageUnavailable:      http.StatusServiceUnavailable,
	dErrors.CodeInternal:                http.StatusInternalServerError,
}

// ToHTTPStatus returns the HTTP status for a domain error code.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard error envelope.
// Infrastructure failures never leak their message to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal && code != dErrors.CodeStorageUnavailable {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// DecodeAndPrepare decodes the JSON request body into T. On failure it
// writes a bad_request response and reports false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		var zero T
		return zero, false
	}
	return req, true
}
