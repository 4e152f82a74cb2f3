package documentservice

import (
	"context"
	"docauth/internal/models"
	cachedocsrepo "docauth/internal/repositories/cache/docs"
	"docauth/internal/utils/hasher"
	"docauth/internal/validator"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	uuid "github.com/satori/go.uuid"
)

const pkg = "documentService/"

const defaultMime = "application/octet-stream"

type DocumentService struct {
	log         *slog.Logger
	docRepo     DocumentRepository
	coordinator Coordinator
	cache       Cache
	blobs       BlobStore
}

func New(
	log *slog.Logger,
	docRepo DocumentRepository,
	coordinator Coordinator,
	cache Cache,
	blobs BlobStore,
) *DocumentService {
	return &DocumentService{
		log:         log,
		docRepo:     docRepo,
		coordinator: coordinator,
		cache:       cache,
		blobs:       blobs,
	}
}

// UploadDocument stores the optional file content and creates the document
// in DRAFT. The blob is removed again when the document cannot be created.
func (ds *DocumentService) UploadDocument(ctx context.Context, requester *models.User, doc *models.Document, file *models.FileUpload) (*models.Document, error) {
	op := pkg + "UploadDocument"

	log := ds.log.With(slog.String("op", op))

	log.Debug("attempting to upload document", slog.String("title", doc.Title), slog.Bool("has_file", file != nil))

	doc.Title = strings.TrimSpace(doc.Title)
	if !validator.IsValidTitle(doc.Title) || !validator.IsValidTags(doc.Tags) {
		log.Warn("invalid document params")
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	doc.ID = uuid.NewV4().String()
	doc.OwnerID = requester.ID

	if file != nil && file.Content != nil {
		ref := path.Join(doc.ID, blobName(file.Name))
		hr := hasher.NewReader(file.Content)

		size, err := ds.blobs.Put(ctx, ref, hr)
		if err != nil {
			log.Error("failed to save file", slog.String("error", err.Error()))
			return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
		}

		doc.FileRef = ref
		doc.FileHash = hr.Digest()
		doc.FileSize = size
		doc.Mime = file.Mime
		if doc.Mime == "" {
			doc.Mime = defaultMime
		}
	}

	created, err := ds.coordinator.Create(ctx, doc)
	if err != nil {
		log.Error("failed to create document", slog.String("error", err.Error()))
		if doc.FileRef != "" {
			if err := ds.blobs.Delete(ctx, doc.FileRef); err != nil {
				log.Error("failed to remove orphaned file", slog.String("ref", doc.FileRef), slog.String("error", err.Error()))
			}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("document uploaded successfully", slog.String("doc_id", created.ID), slog.String("owner_id", created.OwnerID))

	return created, nil
}

// DocumentByID returns the document if requester may read it. Archived
// documents are reported as missing.
func (ds *DocumentService) DocumentByID(ctx context.Context, docID string, requester *models.User) (*models.Document, error) {
	op := pkg + "DocumentByID"

	log := ds.log.With(slog.String("op", op), slog.String("doc_id", docID))

	log.Debug("attempting to get document by id")

	doc, err := cached(ctx, ds.cache, log, cachedocsrepo.DocKey(docID), func() (*models.Document, error) {
		return ds.docRepo.DocumentByID(ctx, docID)
	})
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			log.Warn("document not found")
			return nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
		}
		log.Error("failed to get document by id", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	if doc.IsArchived() {
		log.Warn("document is archived")
		return nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
	}

	if !doc.ReadableBy(requester) {
		log.Warn("user doesn't have access for document")
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	log.Debug("document found successfully")

	return doc, nil
}

// DocumentFile opens the stored content of a readable document. The caller
// closes the returned reader.
func (ds *DocumentService) DocumentFile(ctx context.Context, docID string, requester *models.User) (*models.Document, io.ReadCloser, error) {
	op := pkg + "DocumentFile"

	log := ds.log.With(slog.String("op", op), slog.String("doc_id", docID))

	doc, err := ds.DocumentByID(ctx, docID, requester)
	if err != nil {
		return nil, nil, err
	}

	if doc.FileRef == "" {
		log.Warn("document has no file")
		return nil, nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
	}

	file, err := ds.blobs.Get(ctx, doc.FileRef)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			log.Warn("file is missing in storage", slog.String("ref", doc.FileRef))
			return nil, nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
		}
		log.Error("failed to load file from storage", slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	return doc, file, nil
}

func (ds *DocumentService) UpdateDocument(ctx context.Context, docID string, requester *models.User, upd models.DocumentUpdate) (*models.Document, error) {
	op := pkg + "UpdateDocument"

	log := ds.log.With(slog.String("op", op), slog.String("doc_id", docID))

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if !validator.IsValidTitle(title) {
			log.Warn("invalid title")
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
		}
		upd.Title = &title
	}
	if upd.Tags != nil && !validator.IsValidTags(upd.Tags) {
		log.Warn("invalid tags")
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}
	if upd.ClearExpiry && upd.ExpiryDate != nil {
		log.Warn("expiry date set and cleared at once")
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	doc, err := ds.coordinator.UpdateDocument(ctx, docID, requester.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("document updated successfully")

	return doc, nil
}

// DeleteDocument archives the document. The stored file is kept.
func (ds *DocumentService) DeleteDocument(ctx context.Context, docID string, requester *models.User) error {
	op := pkg + "DeleteDocument"

	log := ds.log.With(slog.String("op", op), slog.String("doc_id", docID))

	log.Debug("attempting to delete document", slog.String("user_id", requester.ID))

	if err := ds.coordinator.ArchiveDocument(ctx, docID, requester.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("document deleted successfully")

	return nil
}

func (ds *DocumentService) ListDocuments(ctx context.Context, requester *models.User, q models.ListQuery) (*models.DocumentPage, error) {
	op := pkg + "ListDocuments"

	log := ds.log.With(slog.String("op", op), slog.String("requester_id", requester.ID))

	if q.Status != "" && !q.Status.IsValid() {
		log.Warn("invalid status filter", slog.String("status", string(q.Status)))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}
	q = q.Normalize()

	key := cachedocsrepo.OwnerListKey(requester.ID, "list", q.Status, q.Page, q.Limit)

	page, err := cached(ctx, ds.cache, log, key, func() (*models.DocumentPage, error) {
		return ds.docRepo.ListByOwner(ctx, requester.ID, q)
	})
	if err != nil {
		log.Error("failed to list documents", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	log.Debug("documents listed successfully", slog.Int("count", len(page.Documents)), slog.Int("total", page.Total))

	return page, nil
}

// ListByOrganization lists the documents orgID currently holds access to.
// Only members of that organization may ask.
func (ds *DocumentService) ListByOrganization(ctx context.Context, requester *models.User, orgID string, q models.ListQuery) (*models.DocumentPage, error) {
	op := pkg + "ListByOrganization"

	log := ds.log.With(slog.String("op", op), slog.String("org_id", orgID))

	if !requester.BelongsTo(orgID) {
		log.Warn("requester is not a member of the organization", slog.String("requester_id", requester.ID))
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if q.Status != "" && !q.Status.IsValid() {
		log.Warn("invalid status filter", slog.String("status", string(q.Status)))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}
	q = q.Normalize()

	key := cachedocsrepo.OrgListKey(orgID, "list", q.Status, q.Page, q.Limit)

	page, err := cached(ctx, ds.cache, log, key, func() (*models.DocumentPage, error) {
		return ds.docRepo.ListByOrganization(ctx, orgID, q)
	})
	if err != nil {
		log.Error("failed to list organization documents", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	return page, nil
}

func (ds *DocumentService) Search(ctx context.Context, requester *models.User, q models.SearchQuery) (*models.DocumentPage, error) {
	op := pkg + "Search"

	log := ds.log.With(slog.String("op", op), slog.String("requester_id", requester.ID))

	q.Term = strings.TrimSpace(q.Term)
	if q.Status != "" && !q.Status.IsValid() {
		log.Warn("invalid status filter", slog.String("status", string(q.Status)))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		log.Warn("search range is reversed")
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}
	q.ListQuery = q.ListQuery.Normalize()

	key := cachedocsrepo.OwnerListKey(requester.ID, "search",
		q.Term, q.Status, timeParam(q.From), timeParam(q.To), q.Page, q.Limit)

	page, err := cached(ctx, ds.cache, log, key, func() (*models.DocumentPage, error) {
		return ds.docRepo.Search(ctx, requester.ID, q)
	})
	if err != nil {
		log.Error("failed to search documents", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	log.Debug("documents searched successfully", slog.Int("count", len(page.Documents)))

	return page, nil
}

func (ds *DocumentService) Recent(ctx context.Context, requester *models.User, limit int) ([]*models.Document, error) {
	op := pkg + "Recent"

	log := ds.log.With(slog.String("op", op), slog.String("requester_id", requester.ID))

	if limit <= 0 {
		limit = models.DefaultRecent
	}
	if limit > models.MaxPageLimit {
		limit = models.MaxPageLimit
	}

	key := cachedocsrepo.OwnerListKey(requester.ID, "recent", limit)

	docs, err := cached(ctx, ds.cache, log, key, func() ([]*models.Document, error) {
		return ds.docRepo.Recent(ctx, requester.ID, limit)
	})
	if err != nil {
		log.Error("failed to list recent documents", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	return docs, nil
}

func (ds *DocumentService) CountByStatus(ctx context.Context, requester *models.User) (map[models.Status]int, error) {
	op := pkg + "CountByStatus"

	log := ds.log.With(slog.String("op", op), slog.String("requester_id", requester.ID))

	key := cachedocsrepo.OwnerListKey(requester.ID, "count")

	counts, err := cached(ctx, ds.cache, log, key, func() (map[models.Status]int, error) {
		return ds.docRepo.CountByStatus(ctx, requester.ID)
	})
	if err != nil {
		log.Error("failed to count documents", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	return counts, nil
}

// cached reads key from the cache and falls back to load on a miss or a
// corrupt entry. Cache failures never fail the read. The key is stamped
// before load, so a result loaded ahead of an invalidation is stored where no
// later read looks.
func cached[T any](ctx context.Context, cache Cache, log *slog.Logger, key string, load func() (T, error)) (T, error) {
	key, err := cache.Stamp(ctx, key)
	if err != nil {
		log.Warn("cache unavailable, reading through", slog.String("error", err.Error()))
		return load()
	}

	raw, err := cache.Get(ctx, key)
	if err == nil && raw != "" {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			log.Debug("cache hit", slog.String("key", key))
			return v, nil
		}
		log.Warn("dropping corrupt cache entry", slog.String("key", key))
		if err := cache.Del(ctx, key); err != nil {
			log.Warn("failed to drop cache entry", slog.String("error", err.Error()))
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		log.Error("failed to encode cache entry", slog.String("error", err.Error()))
		return v, nil
	}

	if err := cache.Set(ctx, key, string(data)); err != nil {
		log.Warn("failed to set cache entry", slog.String("key", key), slog.String("error", err.Error()))
	}

	return v, nil
}

func blobName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "content"
	}
	return name
}

func timeParam(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
