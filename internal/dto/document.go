package dto

import (
	"docauth/internal/models"
	"encoding/json"
	"time"
)

type UploadMeta struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	DocumentType string          `json:"document_type"`
	Tags         []string        `json:"tags"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	Metadata     json.RawMessage `json:"metadata"`
}

func (m UploadMeta) ToModel() *models.Document {
	doc := &models.Document{
		Title:        m.Title,
		Description:  m.Description,
		DocumentType: m.DocumentType,
		Tags:         m.Tags,
		Metadata:     m.Metadata,
	}
	if m.ExpiryDate != nil {
		expiry := m.ExpiryDate.UTC()
		doc.ExpiryDate = &expiry
	}
	return doc
}

// UpdateDocumentRequest carries only the fields to change; absent fields are
// left as they are.
type UpdateDocumentRequest struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	DocumentType *string         `json:"document_type"`
	Tags         []string        `json:"tags"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	ClearExpiry  bool            `json:"clear_expiry"`
	Metadata     json.RawMessage `json:"metadata"`
}

func (r UpdateDocumentRequest) ToModel() models.DocumentUpdate {
	return models.DocumentUpdate{
		Title:        r.Title,
		Description:  r.Description,
		DocumentType: r.DocumentType,
		Tags:         r.Tags,
		ExpiryDate:   r.ExpiryDate,
		ClearExpiry:  r.ClearExpiry,
		Metadata:     r.Metadata,
	}
}

type DocumentResponse struct {
	ID                      string                   `json:"id"`
	OwnerID                 string                   `json:"owner_id"`
	Title                   string                   `json:"title"`
	Description             string                   `json:"description,omitempty"`
	DocumentType            string                   `json:"document_type,omitempty"`
	Tags                    []string                 `json:"tags"`
	HasFile                 bool                     `json:"file"`
	FileHash                string                   `json:"file_hash,omitempty"`
	FileSize                int64                    `json:"file_size"`
	Mime                    string                   `json:"mime,omitempty"`
	OverallStatus           models.Status            `json:"overall_status"`
	VerificationStatuses    map[string]models.Status `json:"verification_statuses"`
	OrganizationsWithAccess []string                 `json:"organizations_with_access"`
	Metadata                json.RawMessage          `json:"metadata,omitempty"`
	ExpiryDate              *time.Time               `json:"expiry_date,omitempty"`
	Version                 int64                    `json:"version"`
	CreatedAt               time.Time                `json:"created"`
	UpdatedAt               time.Time                `json:"updated"`
	SubmittedAt             *time.Time               `json:"submitted_at,omitempty"`
	LastVerifiedAt          *time.Time               `json:"last_verified_at,omitempty"`
	RevokedAt               *time.Time               `json:"revoked_at,omitempty"`
	ExpiredAt               *time.Time               `json:"expired_at,omitempty"`
}

func NewDocumentResponse(doc *models.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:                      doc.ID,
		OwnerID:                 doc.OwnerID,
		Title:                   doc.Title,
		Description:             doc.Description,
		DocumentType:            doc.DocumentType,
		Tags:                    doc.Tags,
		HasFile:                 doc.FileRef != "",
		FileHash:                doc.FileHash,
		FileSize:                doc.FileSize,
		Mime:                    doc.Mime,
		OverallStatus:           doc.OverallStatus,
		VerificationStatuses:    doc.VerificationStatuses,
		OrganizationsWithAccess: doc.OrganizationsWithAccess,
		Metadata:                doc.Metadata,
		ExpiryDate:              doc.ExpiryDate,
		Version:                 doc.Version,
		CreatedAt:               doc.CreatedAt,
		UpdatedAt:               doc.UpdatedAt,
		SubmittedAt:             doc.SubmittedAt,
		LastVerifiedAt:          doc.LastVerifiedAt,
		RevokedAt:               doc.RevokedAt,
		ExpiredAt:               doc.ExpiredAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.VerificationStatuses == nil {
		resp.VerificationStatuses = map[string]models.Status{}
	}
	if resp.OrganizationsWithAccess == nil {
		resp.OrganizationsWithAccess = []string{}
	}
	return resp
}

func NewDocumentResponses(docs []*models.Document) []DocumentResponse {
	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, NewDocumentResponse(doc))
	}
	return resp
}

type DocumentPageResponse struct {
	Documents []DocumentResponse `json:"docs"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}

func NewDocumentPageResponse(page *models.DocumentPage) DocumentPageResponse {
	return DocumentPageResponse{
		Documents: NewDocumentResponses(page.Documents),
		Total:     page.Total,
		Page:      page.Page,
		Limit:     page.Limit,
	}
}
