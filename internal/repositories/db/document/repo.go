package documentrepo

import (
	"context"
	"database/sql"
	"docauth/internal/dbs/postgres"
	"docauth/internal/entities"
	"docauth/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pkg = "documentRepo/"

// likeEscaper makes a search term match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const selectDocument = `SELECT
			d.id AS id,
			d.owner_id AS owner_id,
			d.title AS title,
			d.description AS description,
			d.document_type AS document_type,
			d.tags AS tags,
			d.file_ref AS file_ref,
			d.file_hash AS file_hash,
			d.file_size AS file_size,
			d.mime AS mime,
			d.overall_status AS overall_status,
			d.verification_statuses AS verification_statuses,
			COALESCE((SELECT array_agg(g.organization_id ORDER BY g.organization_id)
				FROM document_grants g WHERE g.document_id = d.id), '{}') AS organizations_with_access,
			d.metadata AS metadata,
			d.expiry_date AS expiry_date,
			d.version AS version,
			d.created_at AS created_at,
			d.updated_at AS updated_at,
			d.submitted_at AS submitted_at,
			d.last_verified_at AS last_verified_at,
			d.revoked_at AS revoked_at,
			d.archived_at AS archived_at,
			d.expired_at AS expired_at`

// Statuses the expiration sweep never touches.
var sweepExcluded = []string{
	string(models.StatusRevoked),
	string(models.StatusArchived),
	string(models.StatusPendingDeletion),
	string(models.StatusExpired),
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *repository {
	return &repository{db: db}
}

func (r *repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	op := pkg + "CreateDocument"

	statuses, err := marshalStatuses(doc.VerificationStatuses)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = postgres.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO documents (id, owner_id, title, description, document_type, tags, file_ref, file_hash, file_size, mime,
			overall_status, verification_statuses, metadata, expiry_date, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		doc.ID, doc.OwnerID, doc.Title, doc.Description, doc.DocumentType, tagsArray(doc.Tags),
		doc.FileRef, doc.FileHash, doc.FileSize, doc.Mime,
		string(doc.OverallStatus), statuses, nullableJSON(doc.Metadata), doc.ExpiryDate,
		doc.Version, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return &models.UniqueConstraintError{
				Constraint: pgErr.Constraint,
				Err:        models.ErrUNIQUEConstraintFailed,
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *repository) DocumentByID(ctx context.Context, id string) (*models.Document, error) {
	op := pkg + "DocumentByID"

	rawDoc := entities.Document{}

	err := postgres.Conn(ctx, r.db).GetContext(ctx, &rawDoc,
		selectDocument+`
		FROM documents d
		WHERE d.id = $1`,
		id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := toModel(rawDoc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

// UpdateIfVersion writes doc only if the stored version still equals
// expected. On success doc.Version becomes expected+1; otherwise
// models.ErrVersionConflict is returned and nothing is written.
func (r *repository) UpdateIfVersion(ctx context.Context, doc *models.Document, expected int64) error {
	op := pkg + "UpdateIfVersion"

	statuses, err := marshalStatuses(doc.VerificationStatuses)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE documents SET
			title = $3,
			description = $4,
			document_type = $5,
			tags = $6,
			overall_status = $7,
			verification_statuses = $8,
			metadata = $9,
			expiry_date = $10,
			submitted_at = $11,
			last_verified_at = $12,
			revoked_at = $13,
			archived_at = $14,
			expired_at = $15,
			updated_at = $16,
			version = $2 + 1
		WHERE id = $1 AND version = $2`,
		doc.ID, expected, doc.Title, doc.Description, doc.DocumentType, tagsArray(doc.Tags),
		string(doc.OverallStatus), statuses, nullableJSON(doc.Metadata), doc.ExpiryDate,
		doc.SubmittedAt, doc.LastVerifiedAt, doc.RevokedAt, doc.ArchivedAt, doc.ExpiredAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrVersionConflict)
	}

	doc.Version = expected + 1

	return nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID string, q models.ListQuery) (*models.DocumentPage, error) {
	op := pkg + "ListByOwner"

	q = q.Normalize()

	rows := make([]entities.DocumentListRow, 0)

	err := postgres.Conn(ctx, r.db).SelectContext(ctx, &rows,
		selectDocument+`,
			COUNT(*) OVER() AS total_count
		FROM documents d
		WHERE d.owner_id = $1
			AND d.archived_at IS NULL
			AND ($2 = '' OR d.overall_status = $2)
		ORDER BY d.created_at DESC, d.id
		LIMIT $3 OFFSET $4`,
		ownerID, string(q.Status), q.Limit, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page, err := toPage(rows, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (r *repository) ListByOrganization(ctx context.Context, orgID string, q models.ListQuery) (*models.DocumentPage, error) {
	op := pkg + "ListByOrganization"

	q = q.Normalize()

	rows := make([]entities.DocumentListRow, 0)

	err := postgres.Conn(ctx, r.db).SelectContext(ctx, &rows,
		selectDocument+`,
			COUNT(*) OVER() AS total_count
		FROM documents d
		INNER JOIN document_grants og ON og.document_id = d.id
		WHERE og.organization_id = $1
			AND d.archived_at IS NULL
			AND ($2 = '' OR d.overall_status = $2)
		ORDER BY d.created_at DESC, d.id
		LIMIT $3 OFFSET $4`,
		orgID, string(q.Status), q.Limit, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page, err := toPage(rows, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// Search matches the term against title, description, type and tags of the
// owner's documents.
func (r *repository) Search(ctx context.Context, ownerID string, q models.SearchQuery) (*models.DocumentPage, error) {
	op := pkg + "Search"

	q.ListQuery = q.ListQuery.Normalize()

	rows := make([]entities.DocumentListRow, 0)

	err := postgres.Conn(ctx, r.db).SelectContext(ctx, &rows,
		selectDocument+`,
			COUNT(*) OVER() AS total_count
		FROM documents d
		WHERE d.owner_id = $1
			AND d.archived_at IS NULL
			AND ($2 = '' OR d.title ILIKE '%' || $8 || '%' ESCAPE '\'
				OR d.description ILIKE '%' || $8 || '%' ESCAPE '\'
				OR d.document_type ILIKE '%' || $8 || '%' ESCAPE '\'
				OR $2 = ANY(d.tags))
			AND ($3 = '' OR d.overall_status = $3)
			AND ($4::timestamptz IS NULL OR d.created_at >= $4)
			AND ($5::timestamptz IS NULL OR d.created_at <= $5)
		ORDER BY d.created_at DESC, d.id
		LIMIT $6 OFFSET $7`,
		ownerID, q.Term, string(q.Status), q.From, q.To, q.Limit, q.Offset(), likeEscaper.Replace(q.Term))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page, err := toPage(rows, q.ListQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (r *repository) Recent(ctx context.Context, ownerID string, limit int) ([]*models.Document, error) {
	op := pkg + "Recent"

	if limit <= 0 {
		limit = models.DefaultRecent
	}

	rawDocs := make([]entities.Document, 0)

	err := postgres.Conn(ctx, r.db).SelectContext(ctx, &rawDocs,
		selectDocument+`
		FROM documents d
		WHERE d.owner_id = $1 AND d.archived_at IS NULL
		ORDER BY d.created_at DESC, d.id
		LIMIT $2`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	docs := make([]*models.Document, 0, len(rawDocs))
	for _, rawDoc := range rawDocs {
		doc, err := toModel(rawDoc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (r *repository) CountByStatus(ctx context.Context, ownerID string) (map[models.Status]int, error) {
	op := pkg + "CountByStatus"

	rows := make([]entities.StatusCount, 0)

	err := postgres.Conn(ctx, r.db).SelectContext(ctx, &rows,
		`SELECT d.overall_status AS overall_status, COUNT(*) AS count
		FROM documents d
		WHERE d.owner_id = $1 AND d.archived_at IS NULL
		GROUP BY d.overall_status`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[models.Status]int, len(rows))
	for _, row := range rows {
		counts[models.Status(row.Status)] = row.Count
	}

	return counts, nil
}

// OverdueDocumentIDs returns up to limit documents whose expiry date is at or
// before now and which are neither archived, terminal nor already expired.
func (r *repository) OverdueDocumentIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	op := pkg + "OverdueDocumentIDs"

	ids := make([]string, 0)

	err := postgres.Conn(ctx, r.db).SelectContext(ctx, &ids,
		`SELECT d.id
		FROM documents d
		WHERE d.expiry_date <= $1
			AND d.archived_at IS NULL
			AND d.overall_status <> ALL($2)
		ORDER BY d.expiry_date, d.id
		LIMIT $3`,
		now, pq.Array(sweepExcluded), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}

func toPage(rows []entities.DocumentListRow, q models.ListQuery) (*models.DocumentPage, error) {
	page := &models.DocumentPage{
		Documents: make([]*models.Document, 0, len(rows)),
		Page:      q.Page,
		Limit:     q.Limit,
	}

	for _, row := range rows {
		doc, err := toModel(row.Document)
		if err != nil {
			return nil, err
		}
		page.Documents = append(page.Documents, doc)
		page.Total = row.TotalCount
	}

	return page, nil
}

func toModel(raw entities.Document) (*models.Document, error) {
	statuses := make(map[string]models.Status)
	if len(raw.VerificationStatuses) > 0 {
		if err := json.Unmarshal(raw.VerificationStatuses, &statuses); err != nil {
			return nil, fmt.Errorf("decode verification statuses: %w", err)
		}
	}

	orgs := []string(raw.OrganizationsWithAccess)
	if orgs == nil {
		orgs = []string{}
	}

	return &models.Document{
		ID:                      raw.ID,
		OwnerID:                 raw.OwnerID,
		Title:                   raw.Title,
		Description:             raw.Description,
		DocumentType:            raw.DocumentType,
		Tags:                    []string(raw.Tags),
		FileRef:                 raw.FileRef,
		FileHash:                raw.FileHash,
		FileSize:                raw.FileSize,
		Mime:                    raw.Mime,
		OverallStatus:           models.Status(raw.OverallStatus),
		VerificationStatuses:    statuses,
		OrganizationsWithAccess: orgs,
		Metadata:                raw.Metadata,
		ExpiryDate:              raw.ExpiryDate,
		Version:                 raw.Version,
		CreatedAt:               raw.CreatedAt,
		UpdatedAt:               raw.UpdatedAt,
		SubmittedAt:             raw.SubmittedAt,
		LastVerifiedAt:          raw.LastVerifiedAt,
		RevokedAt:               raw.RevokedAt,
		ArchivedAt:              raw.ArchivedAt,
		ExpiredAt:               raw.ExpiredAt,
	}, nil
}

func marshalStatuses(statuses map[string]models.Status) ([]byte, error) {
	if statuses == nil {
		statuses = map[string]models.Status{}
	}
	return json.Marshal(statuses)
}

func tagsArray(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
