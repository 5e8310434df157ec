package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	tubeAuth "github.com/MrEthical07/tubeAuth"
)

const (
	msgUnauthorized  = "Unauthorized request"
	msgInternal      = "Something went wrong"
	msgAccountExists = "User with email or userName already exists."
	msgPolicy        = "Password does not satisfy the password policy."
	msgInvalidInput  = "All fields are required and must be valid."
)

type envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any, message string) {
	writeJSON(w, statusCode, envelope{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func writeError(w http.ResponseWriter, statusCode int, message string, details ...string) {
	if details == nil {
		details = []string{}
	}
	writeJSON(w, statusCode, envelope{
		StatusCode: statusCode,
		Data:       nil,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

// mapError reduces engine errors to a status and a client-safe message.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, tubeAuth.ErrStoreUnavailable), errors.Is(err, tubeAuth.ErrEngineNotReady):
		return http.StatusInternalServerError, msgInternal
	case errors.Is(err, tubeAuth.ErrAccountExists):
		return http.StatusConflict, msgAccountExists
	case errors.Is(err, tubeAuth.ErrPasswordPolicy):
		return http.StatusBadRequest, msgPolicy
	case errors.Is(err, tubeAuth.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	case errors.Is(err, tubeAuth.ErrUnauthenticated),
		errors.Is(err, tubeAuth.ErrInvalidCredentials),
		errors.Is(err, tubeAuth.ErrUserNotFound),
		errors.Is(err, tubeAuth.ErrMissingToken),
		errors.Is(err, tubeAuth.ErrTokenInvalid),
		errors.Is(err, tubeAuth.ErrTokenExpired),
		errors.Is(err, tubeAuth.ErrTokenReused):
		return http.StatusUnauthorized, msgUnauthorized
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
