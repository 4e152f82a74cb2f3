package docs

import (
	"context"
	"docauth/internal/dto"
	"docauth/internal/http/middleware"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	parseutil "docauth/internal/utils/parseLimit"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"
)

const dateLayout = "2006-01-02"

func Get(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, dp DocumentProvider) {
	op := pkg + "Get"

	log = log.With(slog.String("op", op))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	page, err := dp.ListDocuments(ctx, requester, listQuery(r.URL.Query()))
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to list documents", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, dto.NewDocumentPageResponse(page)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func GetByID(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, dp DocumentProvider) {
	op := pkg + "GetByID"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	doc, err := dp.DocumentByID(ctx, docID, requester)
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to get document by id", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, dto.NewDocumentResponse(doc)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

// File streams the stored content of the document.
func File(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, dp DocumentProvider) {
	op := pkg + "File"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	doc, file, err := dp.DocumentFile(ctx, docID, requester)
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to get document file", err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(doc.FileRef)))
	w.Header().Set("Content-Type", doc.Mime)
	w.Header().Set("X-Content-Sha256", doc.FileHash)
	if doc.FileSize > 0 {
		w.Header().Set("Content-Length", fmt.Sprint(doc.FileSize))
	}

	if _, err := io.Copy(w, file); err != nil {
		log.Error("failed to write file response", slog.String("error", err.Error()))
	}
}

func Search(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, dp DocumentProvider) {
	op := pkg + "Search"

	log = log.With(slog.String("op", op))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	query := r.URL.Query()

	from, err := parseTime(query.Get("from"), false)
	if err != nil {
		log.Warn("invalid from parameter", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	to, err := parseTime(query.Get("to"), true)
	if err != nil {
		log.Warn("invalid to parameter", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	page, err := dp.Search(ctx, requester, models.SearchQuery{
		ListQuery: listQuery(query),
		Term:      query.Get("q"),
		From:      from,
		To:        to,
	})
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to search documents", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, dto.NewDocumentPageResponse(page)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func Recent(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, dp DocumentProvider) {
	op := pkg + "Recent"

	log = log.With(slog.String("op", op))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	docs, err := dp.Recent(ctx, requester, parseutil.ParseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to list recent documents", err)
		return
	}

	response := map[string]any{
		"docs": dto.NewDocumentResponses(docs),
	}

	if err := errutils.WriteData(w, http.StatusOK, response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func CountByStatus(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, dp DocumentProvider) {
	op := pkg + "CountByStatus"

	log = log.With(slog.String("op", op))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	counts, err := dp.CountByStatus(ctx, requester)
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to count documents", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, counts); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func ListByOrganization(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, orgID string, dp DocumentProvider) {
	op := pkg + "ListByOrganization"

	log = log.With(slog.String("op", op), slog.String("org_id", orgID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	page, err := dp.ListByOrganization(ctx, requester, orgID, listQuery(r.URL.Query()))
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to list organization documents", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, dto.NewDocumentPageResponse(page)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func listQuery(v url.Values) models.ListQuery {
	return models.ListQuery{
		Status: models.Status(v.Get("status")),
		Page:   parseutil.ParsePage(v.Get("page")),
		Limit:  parseutil.ParseLimit(v.Get("limit")),
	}
}

// parseTime accepts RFC 3339 or a plain date. A plain date used as an upper
// bound covers the whole day.
func parseTime(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
