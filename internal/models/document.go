package models

import (
	"encoding/json"
	"io"
	"maps"
	"slices"
	"time"
)

type Document struct {
	ID                      string            `json:"id"`
	OwnerID                 string            `json:"owner_id"`
	Title                   string            `json:"title"`
	Description             string            `json:"description,omitempty"`
	DocumentType            string            `json:"document_type,omitempty"`
	Tags                    []string          `json:"tags,omitempty"`
	FileRef                 string            `json:"file_ref,omitempty"`
	FileHash                string            `json:"file_hash,omitempty"`
	FileSize                int64             `json:"file_size"`
	Mime                    string            `json:"mime,omitempty"`
	OverallStatus           Status            `json:"overall_status"`
	VerificationStatuses    map[string]Status `json:"verification_statuses"`
	OrganizationsWithAccess []string          `json:"organizations_with_access"`
	Metadata                json.RawMessage   `json:"metadata,omitempty"`
	ExpiryDate              *time.Time        `json:"expiry_date,omitempty"`
	Version                 int64             `json:"version"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
	SubmittedAt             *time.Time        `json:"submitted_at,omitempty"`
	LastVerifiedAt          *time.Time        `json:"last_verified_at,omitempty"`
	RevokedAt               *time.Time        `json:"revoked_at,omitempty"`
	ArchivedAt              *time.Time        `json:"archived_at,omitempty"`
	ExpiredAt               *time.Time        `json:"expired_at,omitempty"`
}

// Clone returns a deep copy so that callers can mutate the result without
// touching a shared snapshot.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	c := *d
	c.Tags = slices.Clone(d.Tags)
	c.OrganizationsWithAccess = slices.Clone(d.OrganizationsWithAccess)
	c.Metadata = slices.Clone(d.Metadata)
	c.VerificationStatuses = maps.Clone(d.VerificationStatuses)
	if c.VerificationStatuses == nil {
		c.VerificationStatuses = make(map[string]Status)
	}
	c.ExpiryDate = cloneTime(d.ExpiryDate)
	c.SubmittedAt = cloneTime(d.SubmittedAt)
	c.LastVerifiedAt = cloneTime(d.LastVerifiedAt)
	c.RevokedAt = cloneTime(d.RevokedAt)
	c.ArchivedAt = cloneTime(d.ArchivedAt)
	c.ExpiredAt = cloneTime(d.ExpiredAt)

	return &c
}

func (d *Document) IsArchived() bool {
	return d.ArchivedAt != nil
}

func (d *Document) HasAccess(orgID string) bool {
	return slices.Contains(d.OrganizationsWithAccess, orgID)
}

// ReadableBy reports whether u may read the document: the owner always can,
// members of an organization only while it holds access.
func (d *Document) ReadableBy(u *User) bool {
	if u == nil {
		return false
	}
	return d.OwnerID == u.ID || (u.OrganizationID != "" && d.HasAccess(u.OrganizationID))
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type CompositeStatus struct {
	OverallStatus        Status            `json:"overall_status"`
	OrganizationStatuses map[string]Status `json:"organization_statuses"`
}

type ListQuery struct {
	Status Status
	Page   int
	Limit  int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	DefaultRecent    = 5
)

// Normalize clamps paging values to the supported range.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type SearchQuery struct {
	ListQuery
	Term string
	From *time.Time
	To   *time.Time
}

type DocumentPage struct {
	Documents []*Document `json:"documents"`
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	Limit     int         `json:"limit"`
}

type DocumentUpdate struct {
	Title        *string
	Description  *string
	DocumentType *string
	Tags         []string
	ExpiryDate   *time.Time
	ClearExpiry  bool
	Metadata     json.RawMessage
}

// FileUpload is the binary part of a document upload.
type FileUpload struct {
	Name    string
	Mime    string
	Content io.Reader
}
