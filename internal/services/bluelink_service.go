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

const nsBlueLinks = "bluelinks"

type BlueLinkServiceInterface interface {
	List(ctx context.Context, filters url.Values) (json.RawMessage, error)
	Create(ctx context.Context, link models.BlueLink) (json.RawMessage, error)
	Patch(ctx context.Context, id string, patch json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, id string) error
	BatchUpsert(ctx context.Context, links []models.BlueLink) (int, error)
}

type BlueLinkService struct {
	store store.ClientInterface
	memo  *cache.Memo
}

func NewBlueLinkService(st store.ClientInterface, memo *cache.Memo) BlueLinkServiceInterface {
	return &BlueLinkService{store: st, memo: memo}
}

func (s *BlueLinkService) List(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	key := filters.Encode()
	if cached, ok := s.memo.Get(nsBlueLinks, key, listTTL); ok {
		return cached.(json.RawMessage), nil
	}
	raw, err := s.store.Select(ctx, models.TableBlueLinks, filters)
	if err != nil {
		return nil, err
	}
	s.memo.Set(nsBlueLinks, key, json.RawMessage(raw), listCap)
	return raw, nil
}

func validateSourceLink(link string) error {
	trimmed := strings.TrimSpace(link)
	if trimmed == "" {
		return errs.NewUserError("source link must not be empty")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return errs.NewUserError("source link is not a url: %s", link)
	}
	return nil
}

func (s *BlueLinkService) Create(ctx context.Context, link models.BlueLink) (json.RawMessage, error) {
	if err := validateSourceLink(link.SourceLink); err != nil {
		return nil, err
	}
	link.UpdatedAt = models.TimestampUTC(time.Now())
	raw, err := s.store.Insert(ctx, models.TableBlueLinks, link)
	if err != nil {
		return nil, err
	}
	s.memo.Invalidate(nsBlueLinks)
	return raw, nil
}

func (s *BlueLinkService) Patch(ctx context.Context, id string, patch json.RawMessage) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.NewUserError("missing id")
	}
	q := url.Values{}
	q.Set("id", store.Eq(id))
	raw, err := s.store.Update(ctx, models.TableBlueLinks, patch, q)
	if err != nil {
		return nil, err
	}
	s.memo.Invalidate(nsBlueLinks)
	return raw, nil
}

func (s *BlueLinkService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.NewUserError("missing id")
	}
	q := url.Values{}
	q.Set("id", store.Eq(id))
	if err := s.store.Delete(ctx, models.TableBlueLinks, q); err != nil {
		return err
	}
	s.memo.Invalidate(nsBlueLinks)
	return nil
}

// BatchUpsert validates every row before touching the store; one bad source
// link rejects the whole batch. The conflict key is the mapping's natural
// identity (account_id, product_id, platform).
func (s *BlueLinkService) BatchUpsert(ctx context.Context, links []models.BlueLink) (int, error) {
	if len(links) == 0 {
		return 0, errs.NewUserError("empty batch")
	}
	now := models.TimestampUTC(time.Now())
	for i := range links {
		if err := validateSourceLink(links[i].SourceLink); err != nil {
			return 0, err
		}
		links[i].UpdatedAt = now
	}
	if _, err := s.store.Upsert(ctx, models.TableBlueLinks, links, "account_id,product_id,platform"); err != nil {
		return 0, err
	}
	s.memo.Invalidate(nsBlueLinks)
	return len(links), nil
}
