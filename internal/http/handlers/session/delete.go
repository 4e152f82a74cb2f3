package session

import (
	"context"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Delete ends the session. Unknown tokens are answered the same way as
// known ones.
func Delete(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, token string, sd SessionDeleter) {
	op := pkg + "Delete"

	log = log.With(slog.String("op", op))

	if err := sd.Logout(ctx, token); err != nil {
		if !errors.Is(err, models.ErrSessionNotFound) {
			log.Error("failed to delete session", slog.String("error", err.Error()))
			errutils.WriteJSONError(w, http.StatusInternalServerError, models.ErrInternal.Error())
			return
		}
		log.Debug("session already gone")
	}

	response := map[string]any{
		"response": map[string]any{
			token: true,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
