package verificationservice

import (
	"context"
	"docauth/internal/lifecycle"
	"docauth/internal/models"
	"docauth/internal/validator"
	"fmt"
	"log/slog"
	"time"
)

// Create stores a new DRAFT document together with its upload audit entry.
func (c *Coordinator) Create(ctx context.Context, doc *models.Document) (_ *models.Document, err error) {
	op := pkg + "Create"

	ctx, span := c.startSpan(ctx, op, doc.ID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	log := c.log.With(slog.String("op", op))

	log.Debug("attempting to create document", slog.String("owner_id", doc.OwnerID), slog.String("title", doc.Title))

	now := c.now()
	if doc.ID == "" {
		doc.ID = c.newID()
	}
	doc.OverallStatus = models.StatusDraft
	doc.VerificationStatuses = map[string]models.Status{}
	doc.OrganizationsWithAccess = nil
	doc.Version = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now

	fx := &effects{}
	fx.audit(doc, models.AuditUploadDocument, doc.OwnerID, now, map[string]any{
		"title":     doc.Title,
		"file_hash": doc.FileHash,
	})
	fx.notifyOwner(doc, models.ContentDocumentUploaded, models.PriorityNormal, now,
		"Document %q was uploaded", doc.Title)

	events, err := fx.outboxEvents(c.newID)
	if err != nil {
		log.Error("failed to build outbox events", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	err = c.tx.InTx(ctx, func(ctx context.Context) error {
		if err := c.docs.CreateDocument(ctx, doc); err != nil {
			return err
		}
		return c.outbox.Enqueue(ctx, events...)
	})
	if err != nil {
		log.Error("failed to create document", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, doc.ID, doc.OwnerID, nil); err != nil {
			log.Error("failed to invalidate owner cache", slog.String("error", err.Error()))
		}
	}

	log.Debug("document created successfully", slog.String("doc_id", doc.ID))

	return doc, nil
}

// SubmitForVerification grants every listed organization access and moves
// its entry to SUBMITTED. A single rejected transition fails the whole call.
func (c *Coordinator) SubmitForVerification(ctx context.Context, docID, ownerID string, orgIDs []string) (_ *models.Document, err error) {
	op := pkg + "SubmitForVerification"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	orgIDs, ok := validator.OrganizationIDs(orgIDs)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	doc, _, err := c.commit(ctx, op, docID, func(doc *models.Document, now time.Time, fx *effects) error {
		if err := requireOwner(doc, ownerID); err != nil {
			return err
		}
		if err := requireActive(doc); err != nil {
			return err
		}

		for _, orgID := range orgIDs {
			lifecycle.Grant(doc, orgID)

			next, err := lifecycle.Apply(doc, orgID, lifecycle.EventSubmit, now)
			if err != nil {
				return err
			}

			fx.transition(next)
			fx.audit(doc, models.AuditSubmittedForReview, ownerID, now, map[string]any{
				"organization_id": orgID,
			})
			fx.notifyOrganization(doc, orgID, models.ContentVerificationRequested, models.PriorityHigh, now,
				"Document %q was submitted for verification", doc.Title)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// ChangeStatus moves orgID's entry to newStatus on behalf of actor, who must
// belong to that organization.
func (c *Coordinator) ChangeStatus(ctx context.Context, docID, orgID string, actor *models.User, newStatus models.Status) (_ *models.Document, err error) {
	op := pkg + "ChangeStatus"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	if !newStatus.IsValid() || !validator.IsValidOrganizationID(orgID) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}
	if !actor.BelongsTo(orgID) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	doc, _, err := c.commit(ctx, op, docID, func(doc *models.Document, now time.Time, fx *effects) error {
		if err := requireActive(doc); err != nil {
			return err
		}

		if !doc.HasAccess(orgID) {
			return fmt.Errorf("organization %s: %w", orgID, models.ErrForbidden)
		}

		previous := lifecycle.CurrentStatus(doc, orgID)

		if !validator.IsReviewerTarget(newStatus) {
			return &models.TransitionError{Current: previous, Target: newStatus, Event: "set_" + string(newStatus)}
		}

		next, err := lifecycle.ApplyTarget(doc, orgID, newStatus, now)
		if err != nil {
			return err
		}
		if next == previous {
			return errNoChange
		}

		fx.transition(next)
		fx.audit(doc, models.AuditStatusChanged, actor.ID, now, map[string]any{
			"organization_id": orgID,
			"from":            string(previous),
			"to":              string(next),
		})
		fx.notifyOwner(doc, models.ContentStatusUpdated, models.PriorityNormal, now,
			"Organization %s changed the status of %q to %s", orgID, doc.Title, next)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GrantAccess gives orgID access to the document. Granting twice changes
// nothing and emits nothing.
func (c *Coordinator) GrantAccess(ctx context.Context, docID, orgID, actorID string) (err error) {
	op := pkg + "GrantAccess"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	if !validator.IsValidOrganizationID(orgID) {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	_, _, err = c.commit(ctx, op, docID, func(doc *models.Document, now time.Time, fx *effects) error {
		if err := requireOwner(doc, actorID); err != nil {
			return err
		}
		if err := requireActive(doc); err != nil {
			return err
		}

		if !lifecycle.Grant(doc, orgID) {
			return errNoChange
		}

		fx.audit(doc, models.AuditGrantAccess, actorID, now, map[string]any{
			"organization_id": orgID,
		})
		fx.notifyOrganization(doc, orgID, models.ContentAccessGranted, models.PriorityNormal, now,
			"Access to document %q was granted", doc.Title)

		return nil
	})

	return err
}

// RevokeAccess removes orgID's access and its verification entry. Revoking
// an organization that had verified the document is recorded as privileged.
func (c *Coordinator) RevokeAccess(ctx context.Context, docID, orgID, actorID string) (err error) {
	op := pkg + "RevokeAccess"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	if !validator.IsValidOrganizationID(orgID) {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	_, _, err = c.commit(ctx, op, docID, func(doc *models.Document, now time.Time, fx *effects) error {
		if err := requireOwner(doc, actorID); err != nil {
			return err
		}

		previous, removed := lifecycle.Revoke(doc, orgID)
		if !removed {
			return models.ErrGrantNotFound
		}

		metadata := map[string]any{"organization_id": orgID}
		if previous != "" {
			metadata["previous_status"] = string(previous)
		}

		if previous == models.StatusVerified {
			fx.privileged(doc, models.AuditRevokeAccess, actorID, now, metadata)
		} else {
			fx.audit(doc, models.AuditRevokeAccess, actorID, now, metadata)
		}
		fx.notifyOrganization(doc, orgID, models.ContentAccessRevoked, models.PriorityHigh, now,
			"Access to document %q was revoked", doc.Title)

		return nil
	})

	return err
}

// InitiateReVerification restarts verification for every listed organization,
// granting access where it is missing.
func (c *Coordinator) InitiateReVerification(ctx context.Context, docID, ownerID string, orgIDs []string) (_ *models.Document, err error) {
	op := pkg + "InitiateReVerification"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	orgIDs, ok := validator.OrganizationIDs(orgIDs)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	doc, _, err := c.commit(ctx, op, docID, func(doc *models.Document, now time.Time, fx *effects) error {
		if err := requireOwner(doc, ownerID); err != nil {
			return err
		}
		if err := requireActive(doc); err != nil {
			return err
		}

		for _, orgID := range orgIDs {
			lifecycle.Grant(doc, orgID)
			previous := lifecycle.CurrentStatus(doc, orgID)

			next, err := lifecycle.Apply(doc, orgID, lifecycle.EventReVerify, now)
			if err != nil {
				return err
			}

			fx.transition(next)
			fx.audit(doc, models.AuditInitiateVerification, ownerID, now, map[string]any{
				"organization_id": orgID,
				"previous_status": string(previous),
			})
			fx.notifyOrganization(doc, orgID, models.ContentVerificationRequested, models.PriorityHigh, now,
				"Re-verification of document %q was requested", doc.Title)
		}

		doc.ExpiredAt = nil

		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// CompositeStatus is a read-only projection of the document's statuses.
func (c *Coordinator) CompositeStatus(ctx context.Context, docID string, requester *models.User) (_ *models.CompositeStatus, err error) {
	op := pkg + "CompositeStatus"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	log := c.log.With(slog.String("op", op), slog.String("doc_id", docID))

	doc, err := c.docs.DocumentByID(ctx, docID)
	if err != nil {
		return nil, c.mapError(log, op, 1, err)
	}

	if !doc.ReadableBy(requester) {
		log.Warn("user doesn't have access for document")
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	return &models.CompositeStatus{
		OverallStatus:        lifecycle.Overall(doc),
		OrganizationStatuses: doc.Clone().VerificationStatuses,
	}, nil
}

// ExpireDocument expires docID if it is overdue at asOf. It reports whether
// the document changed; expiring an already expired document is a no-op.
func (c *Coordinator) ExpireDocument(ctx context.Context, docID string, asOf time.Time) (_ bool, err error) {
	op := pkg + "ExpireDocument"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	_, changed, err := c.commit(ctx, op, docID, func(doc *models.Document, now time.Time, fx *effects) error {
		if !lifecycle.IsOverdue(doc, asOf) {
			return errNoChange
		}

		before := doc.Clone().VerificationStatuses
		if !lifecycle.Expire(doc, now) {
			return errNoChange
		}

		for orgID, s := range doc.VerificationStatuses {
			if before[orgID] != s {
				fx.transition(s)
			}
		}

		fx.audit(doc, models.AuditDocumentExpired, models.SystemActor, now, map[string]any{
			"expiry_date": doc.ExpiryDate,
		})
		fx.notifyOwner(doc, models.ContentDocumentExpired, models.PriorityHigh, now,
			"Document %q has expired", doc.Title)

		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		c.metrics.IncExpired()
	}

	return changed, nil
}

// UpdateDocument changes the descriptive fields of a document. Moving the
// expiry date into the future lifts the sweeper's expiry stamp.
func (c *Coordinator) UpdateDocument(ctx context.Context, docID, ownerID string, upd models.DocumentUpdate) (_ *models.Document, err error) {
	op := pkg + "UpdateDocument"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	doc, _, err := c.commit(ctx, op, docID, func(doc *models.Document, now time.Time, fx *effects) error {
		if err := requireOwner(doc, ownerID); err != nil {
			return err
		}
		if err := requireActive(doc); err != nil {
			return err
		}

		changed := make([]string, 0, 6)

		if upd.Title != nil {
			doc.Title = *upd.Title
			changed = append(changed, "title")
		}
		if upd.Description != nil {
			doc.Description = *upd.Description
			changed = append(changed, "description")
		}
		if upd.DocumentType != nil {
			doc.DocumentType = *upd.DocumentType
			changed = append(changed, "document_type")
		}
		if upd.Tags != nil {
			doc.Tags = upd.Tags
			changed = append(changed, "tags")
		}
		if upd.Metadata != nil {
			doc.Metadata = upd.Metadata
			changed = append(changed, "metadata")
		}

		switch {
		case upd.ClearExpiry:
			doc.ExpiryDate = nil
			doc.ExpiredAt = nil
			changed = append(changed, "expiry_date")
		case upd.ExpiryDate != nil:
			expiry := upd.ExpiryDate.UTC()
			doc.ExpiryDate = &expiry
			if expiry.After(now) {
				doc.ExpiredAt = nil
			}
			changed = append(changed, "expiry_date")
		}

		if len(changed) == 0 {
			return errNoChange
		}

		fx.audit(doc, models.AuditUpdateDocument, ownerID, now, map[string]any{
			"fields": changed,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// ArchiveDocument soft-deletes the document. Archiving twice is a no-op.
func (c *Coordinator) ArchiveDocument(ctx context.Context, docID, ownerID string) (err error) {
	op := pkg + "ArchiveDocument"

	ctx, span := c.startSpan(ctx, op, docID)
	defer func(start time.Time) { c.endSpan(span, op, start, err) }(time.Now())

	_, _, err = c.commit(ctx, op, docID, func(doc *models.Document, now time.Time, fx *effects) error {
		if err := requireOwner(doc, ownerID); err != nil {
			return err
		}

		if !lifecycle.Archive(doc, now) {
			return errNoChange
		}

		fx.audit(doc, models.AuditDeleteDocument, ownerID, now, nil)

		return nil
	})

	return err
}
