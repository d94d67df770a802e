package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/models"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a JSON body into v and validates it. Decoding failures are reported
// as "Invalid request"; validation failures carry the field message.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	if err := models.ValidateRequest(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeServiceError maps service errors to statuses. Internal detail is logged, never returned;
// fallback is the message used for storage and unknown failures.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	status, message := serviceError(log, err, fallback)
	writeError(w, status, message)
}

func serviceError(log *zap.Logger, err error, fallback string) (int, string) {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, models.ErrStorage):
		return http.StatusInternalServerError, fallback
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "Your journal was changed elsewhere. Please try again."
	case errors.Is(err, models.ErrEntryNotFound):
		return http.StatusNotFound, "Entry not found"
	case errors.Is(err, models.ErrAccountExists):
		return http.StatusConflict, "An account with this email already exists"
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	}
	log.Error("unhandled service error", zap.Error(err))
	return http.StatusInternalServerError, fallback
}
