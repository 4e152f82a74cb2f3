package entities

import (
	"time"

	"github.com/lib/pq"
)

type Document struct {
	ID                      string         `db:"id"`
	OwnerID                 string         `db:"owner_id"`
	Title                   string         `db:"title"`
	Description             string         `db:"description"`
	DocumentType            string         `db:"document_type"`
	Tags                    pq.StringArray `db:"tags"`
	FileRef                 string         `db:"file_ref"`
	FileHash                string         `db:"file_hash"`
	FileSize                int64          `db:"file_size"`
	Mime                    string         `db:"mime"`
	OverallStatus           string         `db:"overall_status"`
	VerificationStatuses    []byte         `db:"verification_statuses"`
	OrganizationsWithAccess pq.StringArray `db:"organizations_with_access"`
	Metadata                []byte         `db:"metadata"`
	ExpiryDate              *time.Time     `db:"expiry_date"`
	Version                 int64          `db:"version"`
	CreatedAt               time.Time      `db:"created_at"`
	UpdatedAt               time.Time      `db:"updated_at"`
	SubmittedAt             *time.Time     `db:"submitted_at"`
	LastVerifiedAt          *time.Time     `db:"last_verified_at"`
	RevokedAt               *time.Time     `db:"revoked_at"`
	ArchivedAt              *time.Time     `db:"archived_at"`
	ExpiredAt               *time.Time     `db:"expired_at"`
}

// DocumentListRow is a Document selected together with the window count of
// the unpaginated result.
type DocumentListRow struct {
	Document
	TotalCount int `db:"total_count"`
}

type StatusCount struct {
	Status string `db:"overall_status"`
	Count  int    `db:"count"`
}
