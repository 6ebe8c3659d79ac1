package services

import (
	"context"
	"net/url"
	"strings"
	"time"
	"vidops/internal/cache"
	"vidops/internal/errs"
	"vidops/internal/models"
	"vidops/internal/store"

	json "github.com/goccy/go-json"
)

const (
	nsCatalog = "catalog"
	nsSchemes = "schemes"
)

// CatalogServiceInterface is the thin translation layer for categories,
// entries, sourcing items and schemes. Each mutation invalidates the
// namespace its reads are memoized under.
type CatalogServiceInterface interface {
	ListRows(ctx context.Context, table string, filters url.Values) (json.RawMessage, error)
	CreateRow(ctx context.Context, table string, body json.RawMessage) (json.RawMessage, error)
	PatchRow(ctx context.Context, table string, id string, patch json.RawMessage) (json.RawMessage, error)
	DeleteRow(ctx context.Context, table string, id string) error
	ReorderSchemes(ctx context.Context, ids []string) error
}

type CatalogService struct {
	store store.ClientInterface
	memo  *cache.Memo
}

func NewCatalogService(st store.ClientInterface, memo *cache.Memo) CatalogServiceInterface {
	return &CatalogService{store: st, memo: memo}
}

func namespaceFor(table string) string {
	if table == models.TableSchemes {
		return nsSchemes
	}
	return nsCatalog
}

func (s *CatalogService) ListRows(ctx context.Context, table string, filters url.Values) (json.RawMessage, error) {
	key := table + "?" + filters.Encode()
	if cached, ok := s.memo.Get(namespaceFor(table), key, listTTL); ok {
		return cached.(json.RawMessage), nil
	}
	raw, err := s.store.Select(ctx, table, filters)
	if err != nil {
		return nil, err
	}
	s.memo.Set(namespaceFor(table), key, json.RawMessage(raw), listCap)
	return raw, nil
}

func (s *CatalogService) CreateRow(ctx context.Context, table string, body json.RawMessage) (json.RawMessage, error) {
	if len(body) == 0 {
		return nil, errs.NewUserError("empty body")
	}
	raw, err := s.store.Insert(ctx, table, body)
	if err != nil {
		return nil, err
	}
	s.memo.Invalidate(namespaceFor(table))
	return raw, nil
}

func (s *CatalogService) PatchRow(ctx context.Context, table string, id string, patch json.RawMessage) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.NewUserError("missing id")
	}
	if len(patch) == 0 {
		return nil, errs.NewUserError("empty patch")
	}
	q := url.Values{}
	q.Set("id", store.Eq(id))
	raw, err := s.store.Update(ctx, table, patch, q)
	if err != nil {
		return nil, err
	}
	s.memo.Invalidate(namespaceFor(table))
	return raw, nil
}

func (s *CatalogService) DeleteRow(ctx context.Context, table string, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.NewUserError("missing id")
	}
	q := url.Values{}
	q.Set("id", store.Eq(id))
	if err := s.store.Delete(ctx, table, q); err != nil {
		return err
	}
	s.memo.Invalidate(namespaceFor(table))
	return nil
}

// ReorderSchemes rewrites sort_order to the requested sequence: position in
// the ids list becomes the order value, keyed by id.
func (s *CatalogService) ReorderSchemes(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errs.NewUserError("empty ids")
	}
	now := models.TimestampUTC(time.Now())
	rows := make([]models.Scheme, len(ids))
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return errs.NewUserError("blank id at position %d", i)
		}
		rows[i] = models.Scheme{ID: id, SortOrder: i, UpdatedAt: now}
	}
	if _, err := s.store.Upsert(ctx, models.TableSchemes, rows, "id"); err != nil {
		return err
	}
	s.memo.Invalidate(nsSchemes)
	return nil
}
