package verificationservice

import (
	"context"
	"docauth/internal/models"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreate_StoresDraftWithUploadEvents(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	doc, err := h.c.Create(ctx, &models.Document{
		OwnerID:  "owner-1",
		Title:    "Passport",
		FileHash: "abc",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, models.StatusDraft, doc.OverallStatus)
	assert.Equal(t, int64(1), doc.Version)
	assert.Empty(t, doc.VerificationStatuses)

	stored := h.store.get(t, doc.ID)
	assert.Equal(t, models.StatusDraft, stored.OverallStatus)

	audits := h.outbox.audits(t)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditUploadDocument, audits[0].Action)
	assert.Equal(t, "owner-1", audits[0].ActorID)

	notes := h.outbox.notifications(t)
	require.Len(t, notes, 1)
	assert.Equal(t, models.ContentDocumentUploaded, notes[0].ContentType)
	assert.Equal(t, "owner-1", notes[0].TargetID)
}

func TestSubmitForVerification_DraftWithoutGrants(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.store.put(draftDocument("doc-1"))

	doc, err := h.c.SubmitForVerification(ctx, "doc-1", "owner-1", []string{"orgA"})
	require.NoError(t, err)

	assert.Equal(t, []string{"orgA"}, doc.OrganizationsWithAccess)
	assert.Equal(t, map[string]models.Status{"orgA": models.StatusSubmitted}, doc.VerificationStatuses)
	assert.Equal(t, models.StatusSubmitted, doc.OverallStatus)
	assert.Equal(t, int64(2), doc.Version)
	require.NotNil(t, doc.SubmittedAt)

	stored := h.store.get(t, "doc-1")
	assert.Equal(t, []string{"orgA"}, stored.OrganizationsWithAccess)
	assert.Equal(t, models.StatusSubmitted, stored.OverallStatus)

	audits := h.outbox.audits(t)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditSubmittedForReview, audits[0].Action)
	assert.Equal(t, "orgA", audits[0].Metadata["organization_id"])

	notes := h.outbox.notifications(t)
	require.Len(t, notes, 1)
	assert.Equal(t, "orgA", notes[0].TargetID)
	assert.Equal(t, models.PriorityHigh, notes[0].Priority)
}

func TestSubmitForVerification_OneEventPairPerOrganization(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(draftDocument("doc-1"))

	_, err := h.c.SubmitForVerification(context.Background(), "doc-1", "owner-1", []string{"orgA", "orgB", "orgC"})
	require.NoError(t, err)

	assert.Len(t, h.outbox.audits(t), 3)
	assert.Len(t, h.outbox.notifications(t), 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(h.metrics.StatusTransitions.WithLabelValues("SUBMITTED")))
}

func TestSubmitForVerification_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    *models.Document
		docID   string
		ownerID string
		orgs    []string
		wantErr error
	}{
		{
			name:    "not owner",
			seed:    draftDocument("doc-1"),
			docID:   "doc-1",
			ownerID: "someone-else",
			orgs:    []string{"orgA"},
			wantErr: models.ErrNotOwner,
		},
		{
			name:    "missing document",
			seed:    draftDocument("doc-1"),
			docID:   "doc-404",
			ownerID: "owner-1",
			orgs:    []string{"orgA"},
			wantErr: models.ErrDocumentNotFound,
		},
		{
			name:    "no organizations",
			seed:    draftDocument("doc-1"),
			docID:   "doc-1",
			ownerID: "owner-1",
			wantErr: models.ErrInvalidParams,
		},
		{
			name:    "empty organization id",
			seed:    draftDocument("doc-1"),
			docID:   "doc-1",
			ownerID: "owner-1",
			orgs:    []string{"orgA", ""},
			wantErr: models.ErrInvalidParams,
		},
		{
			name:    "malformed organization id",
			seed:    draftDocument("doc-1"),
			docID:   "doc-1",
			ownerID: "owner-1",
			orgs:    []string{"org A/../x"},
			wantErr: models.ErrInvalidParams,
		},
		{
			name:    "already verified",
			seed:    withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusVerified}),
			docID:   "doc-1",
			ownerID: "owner-1",
			orgs:    []string{"orgB", "orgA"},
			wantErr: models.ErrInvalidTransition,
		},
		{
			name: "archived",
			seed: func() *models.Document {
				d := draftDocument("doc-1")
				d.ArchivedAt = &testNow
				return d
			}(),
			docID:   "doc-1",
			ownerID: "owner-1",
			orgs:    []string{"orgA"},
			wantErr: models.ErrDocumentArchived,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.store.put(tt.seed)
			before := h.store.get(t, tt.seed.ID)

			_, err := h.c.SubmitForVerification(context.Background(), tt.docID, tt.ownerID, tt.orgs)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, h.store.get(t, tt.seed.ID))
			assert.Empty(t, h.outbox.events)
		})
	}
}

func TestSubmitForVerification_DuplicateOrganizationsCollapse(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(draftDocument("doc-1"))

	doc, err := h.c.SubmitForVerification(context.Background(), "doc-1", "owner-1", []string{"orgA", "orgA"})
	require.NoError(t, err)

	assert.Equal(t, map[string]models.Status{"orgA": models.StatusSubmitted}, doc.VerificationStatuses)
	assert.Len(t, h.outbox.audits(t), 1)
	assert.Len(t, h.outbox.notifications(t), 1)
}

func TestChangeStatus_OwnerTargetRejectedFromChangesRequested(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusChangesRequested}))

	_, err := h.c.ChangeStatus(context.Background(), "doc-1", "orgA", member("orgA"), models.StatusSubmitted)

	var terr *models.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.StatusChangesRequested, terr.Current)
	assert.Equal(t, models.StatusSubmitted, terr.Target)

	stored := h.store.get(t, "doc-1")
	assert.Equal(t, models.StatusChangesRequested, stored.VerificationStatuses["orgA"])
	assert.Equal(t, int64(1), stored.Version)
	assert.Empty(t, h.outbox.events)
}

func TestAccessOperations_RejectMalformedOrganization(t *testing.T) {
	t.Parallel()

	for _, orgID := range []string{"", "bad org", "org*/x"} {
		orgID := orgID
		t.Run(orgID, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusSubmitted}))
			before := h.store.get(t, "doc-1")

			assert.ErrorIs(t, h.c.GrantAccess(context.Background(), "doc-1", orgID, "owner-1"), models.ErrInvalidParams)
			assert.ErrorIs(t, h.c.RevokeAccess(context.Background(), "doc-1", orgID, "owner-1"), models.ErrInvalidParams)
			_, err := h.c.InitiateReVerification(context.Background(), "doc-1", "owner-1", []string{orgID})
			assert.ErrorIs(t, err, models.ErrInvalidParams)

			assert.Equal(t, before, h.store.get(t, "doc-1"))
			assert.Empty(t, h.outbox.events)
		})
	}
}

func TestSubmitForVerification_TransitionErrorCarriesStates(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusRejected}))

	_, err := h.c.SubmitForVerification(context.Background(), "doc-1", "owner-1", []string{"orgA"})

	var terr *models.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.StatusRejected, terr.Current)
}

func TestChangeStatus_ReviewPath(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusSubmitted}))

	reviewer := member("orgA")

	var (
		doc *models.Document
		err error
	)
	for _, s := range []models.Status{models.StatusInQueue, models.StatusUnderReview, models.StatusVerified} {
		doc, err = h.c.ChangeStatus(ctx, "doc-1", "orgA", reviewer, s)
		require.NoError(t, err)
		assert.Equal(t, s, doc.VerificationStatuses["orgA"])
	}

	assert.Equal(t, models.StatusVerified, doc.OverallStatus)
	assert.Equal(t, int64(4), doc.Version)
	require.NotNil(t, doc.LastVerifiedAt)

	audits := h.outbox.audits(t)
	require.Len(t, audits, 3)
	last := audits[2]
	assert.Equal(t, models.AuditStatusChanged, last.Action)
	assert.Equal(t, reviewer.ID, last.ActorID)
	assert.Equal(t, "UNDER_REVIEW", last.Metadata["from"])
	assert.Equal(t, "VERIFIED", last.Metadata["to"])

	for _, n := range h.outbox.notifications(t) {
		assert.Equal(t, "owner-1", n.TargetID)
		assert.Equal(t, models.TargetUser, n.TargetKind)
	}
}

func TestChangeStatus_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		orgID   string
		actor   *models.User
		status  models.Status
		wantErr error
	}{
		{"organization without access", "orgB", member("orgB"), models.StatusInQueue, models.ErrForbidden},
		{"actor from another organization", "orgA", member("orgB"), models.StatusInQueue, models.ErrForbidden},
		{"unknown status", "orgA", member("orgA"), models.Status("DONE"), models.ErrInvalidParams},
		{"edge not in table", "orgA", member("orgA"), models.StatusVerified, models.ErrInvalidTransition},
		{"draft is never a target", "orgA", member("orgA"), models.StatusDraft, models.ErrInvalidTransition},
		{"resubmission is the owner's", "orgA", member("orgA"), models.StatusSubmitted, models.ErrInvalidTransition},
		{"expiry is the sweeper's", "orgA", member("orgA"), models.StatusExpired, models.ErrInvalidTransition},
		{"malformed organization", "org*A", member("org*A"), models.StatusInQueue, models.ErrInvalidParams},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusSubmitted}))

			_, err := h.c.ChangeStatus(context.Background(), "doc-1", tt.orgID, tt.actor, tt.status)

			assert.ErrorIs(t, err, tt.wantErr)
			stored := h.store.get(t, "doc-1")
			assert.Equal(t, models.StatusSubmitted, stored.VerificationStatuses["orgA"])
			assert.Equal(t, int64(1), stored.Version)
			assert.Empty(t, h.outbox.events)
		})
	}
}

func TestResolveScenario_ReviewThenVerify(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{
		"orgA": models.StatusVerified,
		"orgB": models.StatusUnderReview,
	}))
	assert.Equal(t, models.StatusUnderReview, h.store.get(t, "doc-1").OverallStatus)

	doc, err := h.c.ChangeStatus(context.Background(), "doc-1", "orgB", member("orgB"), models.StatusVerified)
	require.NoError(t, err)

	assert.Equal(t, models.StatusVerified, doc.OverallStatus)
}

func TestRevokeAccess_VerifiedOrganization(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{
		"orgA": models.StatusVerified,
		"orgB": models.StatusSubmitted,
	}))

	err := h.c.RevokeAccess(context.Background(), "doc-1", "orgA", "owner-1")
	require.NoError(t, err)

	stored := h.store.get(t, "doc-1")
	assert.Equal(t, map[string]models.Status{"orgB": models.StatusSubmitted}, stored.VerificationStatuses)
	assert.Equal(t, []string{"orgB"}, stored.OrganizationsWithAccess)
	assert.Equal(t, models.StatusSubmitted, stored.OverallStatus)

	audits := h.outbox.audits(t)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditRevokeAccess, audits[0].Action)
	assert.True(t, audits[0].Privileged)
	assert.Equal(t, "VERIFIED", audits[0].Metadata["previous_status"])

	notes := h.outbox.notifications(t)
	require.Len(t, notes, 1)
	assert.Equal(t, "orgA", notes[0].TargetID)
	assert.Equal(t, models.PriorityHigh, notes[0].Priority)
}

func TestRevokeAccess_Rejections(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusSubmitted}))
	ctx := context.Background()

	assert.ErrorIs(t, h.c.RevokeAccess(ctx, "doc-1", "orgZ", "owner-1"), models.ErrGrantNotFound)
	assert.ErrorIs(t, h.c.RevokeAccess(ctx, "doc-1", "orgA", "intruder"), models.ErrNotOwner)
	assert.Empty(t, h.outbox.events)
}

func TestGrantAccess_IsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(draftDocument("doc-1"))
	ctx := context.Background()

	require.NoError(t, h.c.GrantAccess(ctx, "doc-1", "orgA", "owner-1"))
	first := h.store.get(t, "doc-1")

	require.NoError(t, h.c.GrantAccess(ctx, "doc-1", "orgA", "owner-1"))
	second := h.store.get(t, "doc-1")

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"orgA"}, second.OrganizationsWithAccess)
	assert.Empty(t, second.VerificationStatuses)

	audits := h.outbox.audits(t)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditGrantAccess, audits[0].Action)
	assert.Len(t, h.outbox.notifications(t), 1)
}

func TestGrantAccess_RequiresOwner(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(draftDocument("doc-1"))

	err := h.c.GrantAccess(context.Background(), "doc-1", "orgA", "intruder")

	assert.ErrorIs(t, err, models.ErrNotOwner)
	assert.Empty(t, h.store.get(t, "doc-1").OrganizationsWithAccess)
}

func TestChangeStatus_ConcurrentOrganizationsBothLand(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.c.maxAttempts = 10
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{
		"orgA": models.StatusSubmitted,
		"orgB": models.StatusSubmitted,
	}))

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, org := range []string{"orgA", "orgB"} {
		wg.Add(1)
		go func(i int, org string) {
			defer wg.Done()
			_, errs[i] = h.c.ChangeStatus(context.Background(), "doc-1", org, member(org), models.StatusInQueue)
		}(i, org)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored := h.store.get(t, "doc-1")
	assert.Equal(t, models.StatusInQueue, stored.VerificationStatuses["orgA"])
	assert.Equal(t, models.StatusInQueue, stored.VerificationStatuses["orgB"])
	assert.Equal(t, int64(3), stored.Version)
	assert.Equal(t, models.StatusUnderReview, stored.OverallStatus)
}

func TestChangeStatus_RetriesAfterInterleavedWriter(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{
		"orgA": models.StatusSubmitted,
		"orgB": models.StatusUnderReview,
	}))

	var once sync.Once
	h.store.beforeUpdate = func(s *memStore, docID string) {
		once.Do(func() { s.bump(docID, "orgB", models.StatusVerified) })
	}

	doc, err := h.c.ChangeStatus(context.Background(), "doc-1", "orgA", member("orgA"), models.StatusInQueue)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInQueue, doc.VerificationStatuses["orgA"])
	assert.Equal(t, models.StatusVerified, doc.VerificationStatuses["orgB"], "interleaved write must survive")
	assert.Equal(t, int64(3), doc.Version)
	assert.Equal(t, 2, h.store.updates)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.VersionConflicts.WithLabelValues(pkg+"ChangeStatus")))
	assert.Len(t, h.outbox.audits(t), 1)
}

func TestChangeStatus_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusSubmitted}))
	h.store.beforeUpdate = func(s *memStore, docID string) {
		s.bump(docID, "orgB", models.StatusSubmitted)
	}

	_, err := h.c.ChangeStatus(context.Background(), "doc-1", "orgA", member("orgA"), models.StatusInQueue)

	assert.ErrorIs(t, err, models.ErrConcurrentModification)
	assert.Equal(t, 3, h.store.updates)
	assert.Equal(t, float64(3), testutil.ToFloat64(h.metrics.VersionConflicts.WithLabelValues(pkg+"ChangeStatus")))
	assert.Empty(t, h.outbox.events)
}

func TestInitiateReVerification(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	seed := withStatuses(draftDocument("doc-1"), map[string]models.Status{
		"orgA": models.StatusRevoked,
		"orgB": models.StatusExpired,
	})
	seed.ExpiredAt = &testNow
	seed.OverallStatus = models.StatusRevoked
	h.store.put(seed)

	doc, err := h.c.InitiateReVerification(context.Background(), "doc-1", "owner-1", []string{"orgA", "orgC"})
	require.NoError(t, err)

	assert.Equal(t, map[string]models.Status{
		"orgA": models.StatusSubmitted,
		"orgB": models.StatusExpired,
		"orgC": models.StatusSubmitted,
	}, doc.VerificationStatuses)
	assert.Equal(t, []string{"orgA", "orgB", "orgC"}, doc.OrganizationsWithAccess)
	assert.Equal(t, models.StatusExpired, doc.OverallStatus)
	assert.Nil(t, doc.ExpiredAt)

	audits := h.outbox.audits(t)
	require.Len(t, audits, 2)
	assert.Equal(t, models.AuditInitiateVerification, audits[0].Action)
	assert.Equal(t, "REVOKED", audits[0].Metadata["previous_status"])
	assert.Equal(t, "DRAFT", audits[1].Metadata["previous_status"])
}

func TestCompositeStatus_Visibility(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{
		"orgA": models.StatusVerified,
		"orgB": models.StatusUnderReview,
	}))
	ctx := context.Background()

	got, err := h.c.CompositeStatus(ctx, "doc-1", &models.User{ID: "owner-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, got.OverallStatus)
	assert.Equal(t, models.StatusVerified, got.OrganizationStatuses["orgA"])

	_, err = h.c.CompositeStatus(ctx, "doc-1", member("orgB"))
	assert.NoError(t, err)

	_, err = h.c.CompositeStatus(ctx, "doc-1", member("orgZ"))
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = h.c.CompositeStatus(ctx, "doc-404", &models.User{ID: "owner-1"})
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

func TestExpireDocument_IsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	seed := withStatuses(draftDocument("doc-1"), map[string]models.Status{
		"orgA": models.StatusVerified,
		"orgB": models.StatusRevoked,
	})
	expiry := testNow.Add(-time.Minute)
	seed.ExpiryDate = &expiry
	seed.OverallStatus = models.StatusRevoked
	h.store.put(withStatuses(draftDocument("doc-2"), map[string]models.Status{"orgA": models.StatusVerified}))
	h.store.put(seed)

	ctx := context.Background()

	changed, err := h.c.ExpireDocument(ctx, "doc-1", testNow)
	require.NoError(t, err)
	assert.False(t, changed, "revoked documents are terminal")

	other := h.store.get(t, "doc-2")
	other.ExpiryDate = &expiry
	h.store.put(other)

	changed, err = h.c.ExpireDocument(ctx, "doc-2", testNow)
	require.NoError(t, err)
	assert.True(t, changed)

	first := h.store.get(t, "doc-2")
	assert.Equal(t, models.StatusExpired, first.VerificationStatuses["orgA"])
	assert.Equal(t, models.StatusExpired, first.OverallStatus)
	require.NotNil(t, first.ExpiredAt)

	changed, err = h.c.ExpireDocument(ctx, "doc-2", testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, h.store.get(t, "doc-2"))

	audits := h.outbox.audits(t)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditDocumentExpired, audits[0].Action)
	assert.Equal(t, models.SystemActor, audits[0].ActorID)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.DocumentsExpired))
}

func TestExpireDocument_DraftWithoutOrganizations(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	seed := draftDocument("doc-1")
	expiry := testNow.Add(-time.Minute)
	seed.ExpiryDate = &expiry
	h.store.put(seed)

	changed, err := h.c.ExpireDocument(context.Background(), "doc-1", testNow)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusExpired, h.store.get(t, "doc-1").OverallStatus)
}

func TestUpdateDocument(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	seed := withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusSubmitted})
	seed.ExpiredAt = &testNow
	h.store.put(seed)
	ctx := context.Background()

	title := "Passport (renewed)"
	future := testNow.Add(365 * 24 * time.Hour)

	doc, err := h.c.UpdateDocument(ctx, "doc-1", "owner-1", models.DocumentUpdate{
		Title:      &title,
		Tags:       []string{"id"},
		ExpiryDate: &future,
	})
	require.NoError(t, err)

	assert.Equal(t, title, doc.Title)
	assert.Equal(t, []string{"id"}, doc.Tags)
	assert.Equal(t, future, *doc.ExpiryDate)
	assert.Nil(t, doc.ExpiredAt)
	assert.Equal(t, int64(2), doc.Version)

	audits := h.outbox.audits(t)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditUpdateDocument, audits[0].Action)

	_, err = h.c.UpdateDocument(ctx, "doc-1", "owner-1", models.DocumentUpdate{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.store.get(t, "doc-1").Version)

	_, err = h.c.UpdateDocument(ctx, "doc-1", "intruder", models.DocumentUpdate{Title: &title})
	assert.ErrorIs(t, err, models.ErrNotOwner)
}

func TestArchiveDocument(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusVerified}))
	ctx := context.Background()

	require.NoError(t, h.c.ArchiveDocument(ctx, "doc-1", "owner-1"))
	require.NoError(t, h.c.ArchiveDocument(ctx, "doc-1", "owner-1"))

	stored := h.store.get(t, "doc-1")
	assert.Equal(t, models.StatusArchived, stored.OverallStatus)
	assert.Equal(t, int64(2), stored.Version)
	assert.Len(t, h.outbox.audits(t), 1)

	_, err := h.c.SubmitForVerification(ctx, "doc-1", "owner-1", []string{"orgB"})
	assert.ErrorIs(t, err, models.ErrDocumentArchived)
}

func TestCommit_StorageFailureIsInternal(t *testing.T) {
	t.Parallel()

	store := new(MockDocumentStore)
	cache := new(MockCacheInvalidator)
	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)), Config{BaseDelay: time.Microsecond},
		store, &memLedger{store: newMemStore()}, &memOutbox{}, &serialTx{}, cache, nil)

	ctx := context.Background()
	store.On("DocumentByID", mock.Anything, "doc-1").Return(draftDocument("doc-1"), nil)
	store.On("UpdateIfVersion", mock.Anything, mock.Anything, int64(1)).Return(errors.New("connection reset"))

	err := c.GrantAccess(ctx, "doc-1", "orgA", "owner-1")

	assert.ErrorIs(t, err, models.ErrInternal)
	store.AssertNumberOfCalls(t, "UpdateIfVersion", 1)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCommit_InvalidatesCacheForOldAndNewOrganizations(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cache := new(MockCacheInvalidator)
	h.c.cache = cache
	h.store.put(withStatuses(draftDocument("doc-1"), map[string]models.Status{"orgA": models.StatusSubmitted}))

	cache.On("Invalidate", mock.Anything, "doc-1", "owner-1", []string{"orgA"}).Return(errors.New("redis down"))

	err := h.c.RevokeAccess(context.Background(), "doc-1", "orgA", "owner-1")

	require.NoError(t, err, "cache failures never fail a committed change")
	cache.AssertExpectations(t)
}
