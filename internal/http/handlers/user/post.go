package user

import (
	"context"
	"docauth/internal/dto"
	"docauth/internal/models"
	utils "docauth/internal/utils/http_errors"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

const maxBodySize = 1 << 16

// Add registers a user. A non-empty organization_id makes the user a
// reviewer acting for that organization.
func Add(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, ua UserAdder) {
	op := pkg + "Add"

	log = log.With(slog.String("op", op))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Warn("failed to read body", slog.String("error", err.Error()))
		utils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}
	defer r.Body.Close()

	var userRequest dto.UserRequest

	err = json.Unmarshal(body, &userRequest)
	if err != nil {
		log.Warn("unmarshal body", slog.String("error", err.Error()))
		utils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	login, err := ua.Register(ctx, userRequest.Login, userRequest.Password, userRequest.OrganizationID, userRequest.AdminToken)
	if err != nil {
		utils.WriteLoggedError(log, w, "failed to register user", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	response := map[string]any{
		"response": map[string]any{
			"login":           login,
			"organization_id": userRequest.OrganizationID,
		},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
