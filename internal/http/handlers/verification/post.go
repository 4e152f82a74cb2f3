package verification

import (
	"context"
	"docauth/internal/dto"
	"docauth/internal/http/middleware"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"log/slog"
	"net/http"
)

// Submit sends a draft to the listed organizations for review. Every listed
// organization is granted access first.
func Submit(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, s Submitter) {
	op := pkg + "Submit"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	var req dto.OrganizationsRequest

	if err := decodeBody(w, r, &req); err != nil {
		log.Warn("failed to decode body", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	doc, err := s.SubmitForVerification(ctx, docID, requester.ID, req.OrganizationIDs)
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to submit document", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, dto.NewDocumentResponse(doc)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func ReVerify(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, s Submitter) {
	op := pkg + "ReVerify"

	log = log.With(slog.String("op", op), slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	var req dto.OrganizationsRequest

	if err := decodeBody(w, r, &req); err != nil {
		log.Warn("failed to decode body", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	doc, err := s.InitiateReVerification(ctx, docID, requester.ID, req.OrganizationIDs)
	if err != nil {
		errutils.WriteLoggedError(log, w, "failed to initiate re-verification", err)
		return
	}

	if err := errutils.WriteData(w, http.StatusOK, dto.NewDocumentResponse(doc)); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func GrantAccess(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, am AccessManager) {
	changeAccess(ctx, log.With(slog.String("op", pkg+"GrantAccess")), w, r, docID, am.GrantAccess, true)
}

func RevokeAccess(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, docID string, am AccessManager) {
	changeAccess(ctx, log.With(slog.String("op", pkg+"RevokeAccess")), w, r, docID, am.RevokeAccess, false)
}

func changeAccess(
	ctx context.Context,
	log *slog.Logger,
	w http.ResponseWriter,
	r *http.Request,
	docID string,
	apply func(ctx context.Context, docID, orgID, actorID string) error,
	granted bool,
) {
	log = log.With(slog.String("doc_id", docID))

	requester, ok := middleware.Requester(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	var req dto.OrganizationRequest

	if err := decodeBody(w, r, &req); err != nil || req.OrganizationID == "" {
		log.Warn("invalid access request")
		errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		return
	}

	log = log.With(slog.String("org_id", req.OrganizationID))

	if err := apply(ctx, docID, req.OrganizationID, requester.ID); err != nil {
		errutils.WriteLoggedError(log, w, "failed to change access", err)
		return
	}

	response := map[string]any{
		"organization_id": req.OrganizationID,
		"access":          granted,
	}

	if err := errutils.WriteData(w, http.StatusOK, response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
