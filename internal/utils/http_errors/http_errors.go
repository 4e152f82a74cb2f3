package utils

import (
	"docauth/internal/models"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const retryAfterSeconds = "1"

type errorResponse struct {
	Error     string `json:"error"`
	Current   string `json:"current,omitempty"`
	Attempted string `json:"attempted,omitempty"`
}

func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

var errStatuses = []struct {
	err    error
	status int
}{
	{models.ErrDocumentNotFound, http.StatusNotFound},
	{models.ErrGrantNotFound, http.StatusNotFound},
	{models.ErrUserNotFound, http.StatusNotFound},
	{models.ErrNotOwner, http.StatusForbidden},
	{models.ErrForbidden, http.StatusForbidden},
	{models.ErrInvalidParams, http.StatusBadRequest},
	{models.ErrInvalidTransition, http.StatusConflict},
	{models.ErrDocumentArchived, http.StatusConflict},
	{models.ErrUserExists, http.StatusConflict},
	{models.ErrInvalidCredentials, http.StatusUnauthorized},
	{models.ErrSessionNotFound, http.StatusUnauthorized},
}

// StatusFor returns the HTTP status matching err. Unknown errors map to 500.
func StatusFor(err error) int {
	if errors.Is(err, models.ErrConcurrentModification) {
		return http.StatusServiceUnavailable
	}
	for _, es := range errStatuses {
		if errors.Is(err, es.err) {
			return es.status
		}
	}
	return http.StatusInternalServerError
}

// WriteServiceError answers with the status matching err and returns it.
// The text of unknown errors is not exposed.
func WriteServiceError(w http.ResponseWriter, err error) int {
	var te *models.TransitionError
	if errors.As(err, &te) {
		attempted := string(te.Target)
		if attempted == "" {
			attempted = te.Event
		}
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:     models.ErrInvalidTransition.Error(),
			Current:   string(te.Current),
			Attempted: attempted,
		})
		return http.StatusConflict
	}

	status := StatusFor(err)

	switch {
	case status == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", retryAfterSeconds)
		WriteJSONError(w, status, models.ErrConcurrentModification.Error())
	case status == http.StatusInternalServerError:
		WriteJSONError(w, status, models.ErrInternal.Error())
	default:
		WriteJSONError(w, status, publicMessage(err))
	}

	return status
}

// WriteLoggedError writes err like WriteServiceError and logs msg at a level
// that matches the resulting status.
func WriteLoggedError(log *slog.Logger, w http.ResponseWriter, msg string, err error) {
	status := WriteServiceError(w, err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, slog.String("error", err.Error()), slog.Int("status", status))
		return
	}
	log.Warn(msg, slog.String("error", err.Error()), slog.Int("status", status))
}

// WriteStatusError answers without a body, for HEAD requests.
func WriteStatusError(w http.ResponseWriter, status int) {
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	w.WriteHeader(status)
}

func publicMessage(err error) string {
	for _, es := range errStatuses {
		if errors.Is(err, es.err) {
			return es.err.Error()
		}
	}
	return models.ErrInternal.Error()
}

// WriteData wraps data into the {"data": ...} envelope.
func WriteData(w http.ResponseWriter, status int, data any) error {
	return writeJSON(w, status, map[string]any{"data": data})
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
