package api

import (
	"encoding/json"
	"net/http"

	"invenbook/internal/domain"
)

// errorBody is the wire shape of every failed call: a code from the fixed
// taxonomy plus a caller-safe message.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func httpStatus(code domain.Code) int {
	switch code {
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domain.CodePermissionDenied:
		return http.StatusForbidden
	case domain.CodeResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code domain.Code, message string) {
	writeJSON(w, httpStatus(code), errorEnvelope{Error: errorBody{Code: string(code), Message: message}})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, domain.CodeOf(err), domain.MessageOf(err))
}
