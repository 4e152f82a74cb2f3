package docs

import (
	"context"
	"docauth/internal/http/middleware"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"log/slog"
	"net/http"
)

// Delete archives the document. Deleting an archived document again is not
// an error.
func Delete(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, dd DocumentDeleter) {
	op := pkg + "Delete"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	if err := dd.DeleteDocument(ctx, docID, requester); err != nil {
		errutils.WriteLoggedError(log, w, "failed to delete document", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
