package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Taichi-iskw/voice-support/internal/errors"
)

// statusClientClosedRequest is the nginx convention for a caller that went away
const statusClientClosedRequest = 499

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	if code == "" {
		code = errors.CodeInternal
	}
	status := httpStatus(code)
	if status >= 500 {
		slog.Error("request failed", "code", code, "error", err)
	}
	jsonResponse(w, errorResponse{Error: err.Error(), Code: code}, status)
}

// httpStatus maps an AppError code to an HTTP status
func httpStatus(code string) int {
	switch code {
	case errors.CodeInvalidArg:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeConflict:
		return http.StatusConflict
	case errors.CodePollTimeout:
		return http.StatusGatewayTimeout
	case errors.CodeCancelled:
		return statusClientClosedRequest
	case errors.CodeExternal, errors.CodeUpload, errors.CodeSubmission, errors.CodeJobFailed,
		errors.CodeParse, errors.CodeTranslation, errors.CodeSentiment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
