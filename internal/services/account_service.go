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
)

const (
	nsAccounts = "accounts"
	listTTL    = 5 * time.Minute
	listCap    = 256
)

type AccountServiceInterface interface {
	List(ctx context.Context) ([]models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	Create(ctx context.Context, account models.Account) (*models.Account, error)
	Delete(ctx context.Context, id int64) error
	Videos(ctx context.Context, accountID int64) ([]models.AccountVideo, error)
}

type AccountService struct {
	store store.ClientInterface
	memo  *cache.Memo
}

func NewAccountService(st store.ClientInterface, memo *cache.Memo) AccountServiceInterface {
	return &AccountService{store: st, memo: memo}
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	if cached, ok := s.memo.Get(nsAccounts, "all", listTTL); ok {
		return cached.([]models.Account), nil
	}
	raw, err := s.store.Select(ctx, models.TableAccounts, url.Values{"order": {"id.asc"}})
	if err != nil {
		return nil, err
	}
	rows, err := store.DecodeRows[models.Account](raw)
	if err != nil {
		return nil, err
	}
	s.memo.Set(nsAccounts, "all", rows, listCap)
	return rows, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	q := url.Values{}
	q.Set("id", store.Eq(id))
	raw, err := s.store.Select(ctx, models.TableAccounts, q)
	if err != nil {
		return nil, err
	}
	rows, err := store.DecodeRows[models.Account](raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &errs.NotFound{Resource: "account"}
	}
	return &rows[0], nil
}

func (s *AccountService) Create(ctx context.Context, account models.Account) (*models.Account, error) {
	if strings.TrimSpace(account.Name) == "" {
		return nil, errs.NewUserError("account name must not be empty")
	}
	if _, err := ExtractMid(account.HomepageURL); err != nil {
		return nil, err
	}
	account.CreatedAt = models.TimestampUTC(time.Now())

	raw, err := s.store.Insert(ctx, models.TableAccounts, account)
	if err != nil {
		return nil, err
	}
	rows, err := store.DecodeRows[models.Account](raw)
	if err != nil {
		return nil, err
	}
	s.memo.Invalidate(nsAccounts)
	if len(rows) == 0 {
		return &account, nil
	}
	return &rows[0], nil
}

// Delete removes the account and its videos. Videos go first so a failure
// between the two deletes never strands orphan rows.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	videosQ := url.Values{}
	videosQ.Set("account_id", store.Eq(id))
	if err := s.store.Delete(ctx, models.TableAccountVideos, videosQ); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("id", store.Eq(id))
	if err := s.store.Delete(ctx, models.TableAccounts, q); err != nil {
		return err
	}
	s.memo.Invalidate(nsAccounts)
	return nil
}

func (s *AccountService) Videos(ctx context.Context, accountID int64) ([]models.AccountVideo, error) {
	q := url.Values{}
	q.Set("account_id", store.Eq(accountID))
	q.Set("order", "pub_time.desc")
	raw, err := s.store.Select(ctx, models.TableAccountVideos, q)
	if err != nil {
		return nil, err
	}
	return store.DecodeRows[models.AccountVideo](raw)
}
