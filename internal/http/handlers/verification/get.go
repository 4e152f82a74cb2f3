package verification

import (
	"context"
	"docauth/internal/http/middleware"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"log/slog"
	"net/http"
)

func CompositeStatus(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, cp CompositeStatusProvider) {
	op := pkg + "CompositeStatus"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	status, err := cp.CompositeStatus(ctx, docID, requester)
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to resolve composite status", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, status); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
