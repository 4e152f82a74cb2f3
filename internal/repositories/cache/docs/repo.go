package cachedocsrepo

import (
	"context"
	cacherepo "docauth/internal/repositories/cache"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	scopeOwner = "owner"
	scopeOrg   = "org"
)

type repository struct {
	cache       cacherepo.GenerationCache
	documentTTL time.Duration
}

func New(cache cacherepo.GenerationCache, documentTTL time.Duration) *repository {
	return &repository{
		cache:       cache,
		documentTTL: documentTTL,
	}
}

func (r *repository) Get(ctx context.Context, key string) (string, error) {
	docJSON, err := r.cache.Get(ctx, key).Result()
	if err != nil {
		return "", err
	}

	return docJSON, nil
}

func (r *repository) Set(ctx context.Context, key string, value interface{}) error {
	return r.cache.Set(ctx, key, value, r.documentTTL).Err()
}

func (r *repository) Del(ctx context.Context, keys ...string) error {
	return r.cache.Del(ctx, keys...).Err()
}

// Stamp appends the generation of key's scope to key. A read must stamp its
// key before loading so that a value loaded ahead of an Invalidate is stored
// under a key no later read asks for. Generation zero leaves key unchanged.
func (r *repository) Stamp(ctx context.Context, key string) (string, error) {
	gen, err := r.cache.Get(ctx, generationKey(key)).Result()
	if err != nil {
		return "", err
	}
	if gen == "" || gen == "0" {
		return key, nil
	}

	return key + ":g" + gen, nil
}

// Invalidate retires the cached document and every cached list that could
// contain it, then drops the entries it can reach.
func (r *repository) Invalidate(ctx context.Context, docID, ownerID string, orgIDs []string) error {
	var errs []error

	generations := []string{generationKey(DocKey(docID))}
	patterns := make([]string, 0, len(orgIDs)+1)
	if ownerID != "" {
		generations = append(generations, scopeGenerationKey(scopeOwner, ownerID))
		patterns = append(patterns, scopePattern(scopeOwner, ownerID))
	}
	for _, org := range orgIDs {
		generations = append(generations, scopeGenerationKey(scopeOrg, org))
		patterns = append(patterns, scopePattern(scopeOrg, org))
	}

	for _, g := range generations {
		if err := r.cache.Incr(ctx, g).Err(); err != nil {
			errs = append(errs, fmt.Errorf("generation %s: %w", g, err))
		}
	}

	if err := r.cache.Del(ctx, DocKey(docID)).Err(); err != nil {
		errs = append(errs, err)
	}

	for _, p := range patterns {
		if err := r.cache.DelPattern(ctx, p).Err(); err != nil {
			errs = append(errs, fmt.Errorf("pattern %s: %w", p, err))
		}
	}

	return errors.Join(errs...)
}

func DocKey(docID string) string {
	return "doc:" + docID
}

// OwnerListKey derives the key of a cached owner-scoped read. view names the
// query ("list", "search", "recent", "count") and params are appended in
// the given order.
func OwnerListKey(ownerID, view string, params ...any) string {
	return listKey(scopeOwner, ownerID, view, params)
}

func OrgListKey(orgID, view string, params ...any) string {
	return listKey(scopeOrg, orgID, view, params)
}

func listKey(scope, id, view string, params []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "docs:%s:%s:%s", scope, id, view)
	for _, p := range params {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}

// generationKey names the counter guarding key: one per document and one per
// owner or organization list scope.
func generationKey(key string) string {
	if strings.HasPrefix(key, "docs:") {
		if parts := strings.SplitN(key, ":", 4); len(parts) >= 3 {
			return scopeGenerationKey(parts[1], parts[2])
		}
	}
	return "gen:" + key
}

func scopeGenerationKey(scope, id string) string {
	return "gen:" + scope + ":" + id
}

func scopePattern(scope, id string) string {
	return fmt.Sprintf("docs:%s:%s:*", scope, escapeGlob(id))
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
