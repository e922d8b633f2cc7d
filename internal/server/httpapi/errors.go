package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/alert/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the sentinel errors of the store to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)

	msg := err.Error()
	switch code {
	case http.StatusInternalServerError:
		s.logger.Error(r.Context(), "request failed", "error", err)
		msg = "internal error"
	case http.StatusServiceUnavailable:
		s.logger.Error(r.Context(), "storage unavailable", "error", err)
		msg = common.ErrorStorageUnavailable.Error()
	}

	writeError(w, code, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
