package docs

import (
	"context"
	"docauth/internal/dto"
	"docauth/internal/http/middleware"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

const maxBodySize = 1 << 20

func Update(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, du DocumentUpdater) {
	op := pkg + "Update"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Warn("failed to read body", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}
	defer r.Body.Close()

	var req dto.UpdateDocumentRequest

	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("unmarshal body", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	doc, err := du.UpdateDocument(ctx, docID, requester, req.ToModel())
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to update document", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, dto.NewDocumentResponse(doc)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
