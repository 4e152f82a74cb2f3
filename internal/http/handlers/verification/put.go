package verification

import (
	"context"
	"docauth/internal/dto"
	"docauth/internal/http/middleware"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"log/slog"
	"net/http"
	"strings"
)

// ChangeStatus applies a reviewer decision for the reviewer's organization.
// Rejected transitions answer 409 with the current and attempted states.
func ChangeStatus(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, sc StatusChanger) {
	op := pkg + "ChangeStatus"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	var req dto.ChangeStatusRequest

	if err := decodeBody(w, r, &req); err != nil {
		log.Warn("failed to decode body", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	orgID := req.OrganizationID
	if orgID == "" {
		orgID = requester.OrganizationID
	}

	status := models.Status(strings.ToUpper(strings.TrimSpace(req.Status)))

	doc, err := sc.ChangeStatus(ctx, docID, orgID, requester, status)
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to change status", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, dto.NewDocumentResponse(doc)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
