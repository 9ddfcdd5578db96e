package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rkoshti/cliptube-be/internal/apperr"
)

// apiResponse is the success envelope every endpoint returns.
type apiResponse struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// apiError is the failure envelope every endpoint returns.
type apiError struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Success bool     `json:"success"`
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{
		Status:  status,
		Data:    data,
		Message: message,
		Success: true,
	})
}

// respondError translates a service failure into the wire envelope. The
// service layer decides kinds; this is the only place that turns them into
// HTTP status codes.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	message := apperr.Message(err)

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiError{
		Status:  status,
		Message: message,
		Errors:  []string{message},
		Success: false,
	})
}
