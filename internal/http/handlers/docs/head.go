package docs

import (
	"context"
	"docauth/internal/http/middleware"
	errutils "docauth/internal/utils/http_errors"
	"fmt"
	"log/slog"
	"net/http"
)

func Head(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, dp DocumentProvider) {
	op := pkg + "Head"

	log = log.With(slog.String("op", op))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteStatusError(w, http.StatusForbidden)
		return
	}

	page, err := dp.ListDocuments(ctx, requester, listQuery(r.URL.Query()))
	if err != nil {
		log.Warn("failed to list documents", slog.String("error", err.Error()))
		errutils.WriteStatusError(w, errutils.StatusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Documents-Count", fmt.Sprint(page.Total))
	w.WriteHeader(http.StatusOK)
}

func HeadByID(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, dp DocumentProvider) {
	op := pkg + "HeadByID"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteStatusError(w, http.StatusForbidden)
		return
	}

	doc, err := dp.DocumentByID(ctx, docID, requester)
	if err != nil {
		log.Warn("failed to get document by id", slog.String("error", err.Error()))
		errutils.WriteStatusError(w, errutils.StatusFor(err))
		return
	}

	w.Header().Set("X-Document-Status", string(doc.OverallStatus))
	w.Header().Set("X-Document-Version", fmt.Sprint(doc.Version))
	w.Header().Set("ETag", fmt.Sprintf("%q", fmt.Sprint(doc.Version)))
	if doc.Mime != "" {
		w.Header().Set("X-Content-Mime", doc.Mime)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}
