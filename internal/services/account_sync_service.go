// Package services holds the pipelines behind the REST surface: account
// sync, the question tracker, the affiliate link resolvers and the thin
// catalog glue.
package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"
	"vidops/internal/errs"
	"vidops/internal/fanout"
	"vidops/internal/jobs"
	"vidops/internal/models"
	"vidops/internal/providers"
	"vidops/internal/store"
	"vidops/internal/structures"
	"vidops/internal/upstream"

	json "github.com/goccy/go-json"
)

type SyncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

type AccountOutcome struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Added     int    `json:"added"`
	Updated   int    `json:"updated"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

type SyncAllResult struct {
	Added   int              `json:"added"`
	Updated int              `json:"updated"`
	Total   int              `json:"total"`
	Failed  int              `json:"failed"`
	Results []AccountOutcome `json:"results"`
}

type VideoLister interface {
	FetchVideoPage(ctx context.Context, mid int64, pn, ps int) ([]upstream.VideoItem, error)
	FetchVideoStats(ctx context.Context, bvid string) (*upstream.Stats, error)
}

type AccountSyncServiceInterface interface {
	SyncAccount(ctx context.Context, account models.Account) (*SyncResult, error)
	SyncAll(ctx context.Context, progress func(outcome AccountOutcome)) *SyncAllResult
	StartSyncAll() *jobs.Job
}

type AccountSyncService struct {
	conf     *structures.Config
	store    store.ClientInterface
	fetcher  VideoLister
	registry *jobs.Registry
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewAccountSyncService(conf *structures.Config, st store.ClientInterface, fetcher VideoLister, registry *jobs.Registry, logger providers.Logger, metrics providers.MetricsProviderInterface) AccountSyncServiceInterface {
	return &AccountSyncService{
		conf:     conf,
		store:    st,
		fetcher:  fetcher,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

var midPattern = regexp.MustCompile(`space\.bilibili\.com/(\d+)`)

// ExtractMid pulls the numeric creator id out of a homepage URL.
func ExtractMid(homepage string) (int64, error) {
	m := midPattern.FindStringSubmatch(homepage)
	if m == nil {
		return 0, errs.NewUserError("homepage url carries no mid: %s", homepage)
	}
	mid, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, errs.NewUserError("malformed mid in homepage url: %s", homepage)
	}
	return mid, nil
}

func (s *AccountSyncService) SyncAccount(ctx context.Context, account models.Account) (*SyncResult, error) {
	mid, err := ExtractMid(account.HomepageURL)
	if err != nil {
		return nil, err
	}

	items, err := s.fetcher.FetchVideoPage(ctx, mid, 1, s.conf.Upstream.PageSize)
	if err != nil {
		return nil, err
	}

	existing, err := s.existingBvids(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results, failures := fanout.Run(ctx, items, s.conf.Sync.StatConcurrency,
		func(it upstream.VideoItem) string { return it.Bvid },
		func(ctx context.Context, it upstream.VideoItem) (*models.AccountVideo, error) {
			if it.Bvid == "" {
				return nil, nil
			}
			stats, statErr := s.fetcher.FetchVideoStats(ctx, it.Bvid)
			if statErr != nil {
				return nil, statErr
			}
			row := NormalizeVideoRow(account.ID, it, stats, now)
			return &row, nil
		})
	for _, f := range failures {
		s.logger.Warnf(providers.TypeUpstream, "stat lookup failed for %s: %s", f.Identifier, f.Reason)
	}

	rows := fanout.Compact(results)
	if len(rows) == 0 {
		return &SyncResult{}, nil
	}

	res := &SyncResult{Total: len(rows)}
	for _, row := range rows {
		if existing[row.Bvid] {
			res.Updated++
		} else {
			res.Added++
		}
	}

	_, err = s.store.Upsert(ctx, models.TableAccountVideos, rows, "account_id,bvid")
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AccountSyncService) existingBvids(ctx context.Context, accountID int64) (map[string]bool, error) {
	q := url.Values{}
	q.Set("select", "bvid")
	q.Set("account_id", store.Eq(accountID))
	raw, err := s.store.Select(ctx, models.TableAccountVideos, q)
	if err != nil {
		return nil, err
	}
	rows, err := store.DecodeRows[struct {
		Bvid string `json:"bvid"`
	}](raw)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(rows))
	for _, r := range rows {
		set[r.Bvid] = true
	}
	return set, nil
}

// NormalizeVideoRow builds the durable row from a list item and its stat
// lookup. like and favorite come from the stat endpoint only; danmaku falls
// back to the list item's video_review when the endpoint omits it. Zero is
// written as zero.
func NormalizeVideoRow(accountID int64, item upstream.VideoItem, stats *upstream.Stats, now time.Time) models.AccountVideo {
	bundle := models.VideoStats{
		View:    int64(item.Play),
		Reply:   int64(item.Comment),
		Danmaku: int64(item.VideoReview),
	}
	if stats != nil {
		if stats.View != nil {
			bundle.View = *stats.View
		}
		if stats.Like != nil {
			bundle.Like = *stats.Like
		}
		if stats.Favorite != nil {
			bundle.Favorite = *stats.Favorite
		}
		if stats.Reply != nil {
			bundle.Reply = *stats.Reply
		}
		if stats.Danmaku != nil {
			bundle.Danmaku = *stats.Danmaku
		}
	}

	payload, _ := json.Marshal(item)
	pubTime := ""
	if item.Created > 0 {
		pubTime = models.TimestampUTC(time.Unix(item.Created, 0))
	}
	return models.AccountVideo{
		AccountID: accountID,
		Bvid:      item.Bvid,
		Title:     item.Title,
		CoverURL:  item.Pic,
		Duration:  item.Length,
		PubTime:   pubTime,
		Owner:     item.Author,
		Stats:     bundle,
		Payload:   payload,
		UpdatedAt: models.TimestampUTC(now),
	}
}

// SyncAll walks every account sequentially. One broken account never aborts
// the sweep; its outcome carries the error instead.
func (s *AccountSyncService) SyncAll(ctx context.Context, progress func(outcome AccountOutcome)) *SyncAllResult {
	result := &SyncAllResult{Results: []AccountOutcome{}}

	raw, err := s.store.Select(ctx, models.TableAccounts, url.Values{"order": {"id.asc"}})
	if err != nil {
		s.logger.Errorf(providers.TypeJob, "sync-all cannot list accounts: %s", err)
		return result
	}
	accounts, err := store.DecodeRows[models.Account](raw)
	if err != nil {
		s.logger.Errorf(providers.TypeJob, "sync-all cannot decode accounts: %s", err)
		return result
	}

	for _, account := range accounts {
		outcome := AccountOutcome{AccountID: account.ID, Name: account.Name}
		res, syncErr := s.SyncAccount(ctx, account)
		if syncErr != nil {
			outcome.Error = syncErr.Error()
			result.Failed++
		} else {
			outcome.Added, outcome.Updated, outcome.Total = res.Added, res.Updated, res.Total
			result.Added += res.Added
			result.Updated += res.Updated
			result.Total += res.Total
		}
		result.Results = append(result.Results, outcome)
		if progress != nil {
			progress(outcome)
		}
	}
	return result
}

// StartSyncAll allocates a job and runs the sweep detached from the caller's
// request; the job id is the polling handle.
func (s *AccountSyncService) StartSyncAll() *jobs.Job {
	job := s.registry.Create("account_sync", 0)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.registry.Apply(job.ID, jobs.Update{
					Status: jobs.StatusPtr(jobs.StatusFailed),
					Error:  fmt.Sprintf("panic: %v", r),
				})
				s.metrics.IncJobsTotal("account_sync", string(jobs.StatusFailed))
			}
		}()

		ctx := context.Background()
		s.registry.Apply(job.ID, jobs.Update{Status: jobs.StatusPtr(jobs.StatusRunning)})

		raw, err := s.store.Select(ctx, models.TableAccounts, url.Values{"select": {"id"}})
		if err == nil {
			if rows, decErr := store.DecodeRows[struct {
				ID int64 `json:"id"`
			}](raw); decErr == nil {
				s.registry.Apply(job.ID, jobs.Update{Total: jobs.IntPtr(len(rows))})
			}
		}

		s.SyncAll(ctx, func(outcome AccountOutcome) {
			up := jobs.Update{AddProcessed: 1}
			if outcome.Error != "" {
				up.AddFailed = 1
				up.Failures = []fanout.Failure{{
					Identifier: fmt.Sprintf("account:%d", outcome.AccountID),
					Reason:     outcome.Error,
				}}
			} else {
				up.AddSuccess = 1
			}
			s.registry.Apply(job.ID, up)
		})

		s.registry.Apply(job.ID, jobs.Update{Status: jobs.StatusPtr(jobs.StatusSucceeded)})
		s.metrics.IncJobsTotal("account_sync", string(jobs.StatusSucceeded))
		s.logger.Infof(providers.TypeJob, "account sync job %s finished", job.ID)
	}()

	return job
}
