package session

import (
	"context"
	"docauth/internal/dto"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

const maxBodySize = 1 << 16

func Add(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, sc SessionCreator) {
	op := pkg + "Add"

	log = log.With(slog.String("op", op))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Warn("failed to read body", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}
	defer r.Body.Close()

	var req dto.SessionRequest

	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("unmarshal body", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	token, err := sc.Login(ctx, req.Login, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Info("login for unknown user")
			errutils.WriteJSONError(w, http.StatusUnauthorized, models.ErrInvalidCredentials.Error())
			return
		}
		errutils.WriteLoggedError(log, w, "failed to login", err)
		return
	}

	response := map[string]any{
		"response": map[string]any{
			"token": token,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
