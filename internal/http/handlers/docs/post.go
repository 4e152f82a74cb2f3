package docs

import (
	"context"
	"docauth/internal/dto"
	"docauth/internal/http/middleware"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const (
	maxUploadSize   = 32 << 20
	maxMemoryUpload = 10 << 20
)

func Upload(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, du DocumentUploader) {
	op := pkg + "Upload"

	log = log.With(slog.String("op", op))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxMemoryUpload); err != nil {
		log.Warn("failed to parse multipart form", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	var meta dto.UploadMeta

	if err := json.Unmarshal([]byte(r.FormValue("meta")), &meta); err != nil {
		log.Warn("failed to unmarshal meta", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, "invalid meta json")
		return
	}

	if len(meta.Metadata) > 0 && !json.Valid(meta.Metadata) {
		log.Warn("invalid metadata")
		errutils.WriteJSONError(w, http.StatusBadRequest, "invalid metadata")
		return
	}

	var upload *models.FileUpload

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		upload = &models.FileUpload{
			Name:    header.Filename,
			Mime:    header.Header.Get("Content-Type"),
			Content: file,
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		log.Warn("failed to read file part", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, "failed upload error")
		return
	}

	doc, err := du.UploadDocument(ctx, requester, meta.ToModel(), upload)
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to upload document", err)
		return
	}

	w.Header().Set("Location", "/api/documents/"+doc.ID)
	if err := errutils.WriteData(w, http.StatusCreated, dto.NewDocumentResponse(doc)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
