package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vidops/internal/jobs"
	"vidops/internal/models"
	"vidops/internal/structures"
	"vidops/internal/testutil"
	"vidops/internal/upstream"
)

func int64Ptr(n int64) *int64 { return &n }

type mockLister struct {
	mu        sync.Mutex
	items     []upstream.VideoItem
	pageErr   error
	stats     map[string]*upstream.Stats
	statErr   map[string]error
	statCalls []string
}

func (m *mockLister) FetchVideoPage(_ context.Context, mid int64, pn, ps int) ([]upstream.VideoItem, error) {
	return m.items, m.pageErr
}

func (m *mockLister) FetchVideoStats(_ context.Context, bvid string) (*upstream.Stats, error) {
	m.mu.Lock()
	m.statCalls = append(m.statCalls, bvid)
	m.mu.Unlock()
	if err, ok := m.statErr[bvid]; ok {
		return nil, err
	}
	if s, ok := m.stats[bvid]; ok {
		return s, nil
	}
	return &upstream.Stats{}, nil
}

func syncTestConfig() *structures.Config {
	return &structures.Config{
		Upstream: structures.UpstreamConfig{PageSize: 30},
		Sync:     structures.SyncConfig{StatConcurrency: 2},
	}
}

func TestExtractMid(t *testing.T) {
	mid, err := ExtractMid("https://space.bilibili.com/1472906636")
	require.NoError(t, err)
	assert.Equal(t, int64(1472906636), mid)

	mid, err = ExtractMid("https://space.bilibili.com/42/video?tid=0")
	require.NoError(t, err)
	assert.Equal(t, int64(42), mid)

	_, err = ExtractMid("https://www.bilibili.com/video/BV1xx411c7mD")
	require.Error(t, err)
}

func TestNormalizeVideoRow_ZerosSurvive(t *testing.T) {
	item := upstream.VideoItem{
		Bvid:        "BV1xx411c7mD",
		Title:       "装机",
		Play:        500,
		Comment:     7,
		VideoReview: 3,
		Created:     1700000000,
	}
	stats := &upstream.Stats{
		View:     int64Ptr(0),
		Like:     int64Ptr(0),
		Favorite: int64Ptr(12),
		Reply:    int64Ptr(0),
		Danmaku:  int64Ptr(0),
	}

	row := NormalizeVideoRow(9, item, stats, time.Now())

	assert.Equal(t, int64(9), row.AccountID)
	assert.Equal(t, int64(0), row.Stats.View, "endpoint zero overrides the list counter")
	assert.Equal(t, int64(0), row.Stats.Like)
	assert.Equal(t, int64(12), row.Stats.Favorite)
	assert.Equal(t, int64(0), row.Stats.Reply)
	assert.Equal(t, int64(0), row.Stats.Danmaku)
	assert.NotEmpty(t, row.PubTime)
	assert.NotEmpty(t, row.Payload)
}

func TestNormalizeVideoRow_ListFallbacks(t *testing.T) {
	item := upstream.VideoItem{
		Bvid:        "BV1xx411c7mD",
		Play:        500,
		Comment:     7,
		VideoReview: 3,
	}
	stats := &upstream.Stats{Like: int64Ptr(20)}

	row := NormalizeVideoRow(9, item, stats, time.Now())

	assert.Equal(t, int64(500), row.Stats.View, "view falls back to the list's play counter")
	assert.Equal(t, int64(7), row.Stats.Reply, "reply falls back to the list's comment counter")
	assert.Equal(t, int64(3), row.Stats.Danmaku, "danmaku falls back to the list's video_review")
	assert.Equal(t, int64(20), row.Stats.Like)
	assert.Equal(t, int64(0), row.Stats.Favorite, "nothing reported favorite")
	assert.Empty(t, row.PubTime)
}

func TestNormalizeVideoRow_NilStats(t *testing.T) {
	item := upstream.VideoItem{Bvid: "BV1xx411c7mD", Play: 11, VideoReview: 2}
	row := NormalizeVideoRow(1, item, nil, time.Now())

	assert.Equal(t, int64(11), row.Stats.View)
	assert.Equal(t, int64(2), row.Stats.Danmaku)
	assert.Equal(t, int64(0), row.Stats.Like)
}

func TestSyncAccount_AddedUpdatedSplit(t *testing.T) {
	st := &testutil.MockStore{
		SelectFn: func(table string, q url.Values) ([]byte, error) {
			if table == models.TableAccountVideos {
				return []byte(`[{"bvid":"BVexisting01"}]`), nil
			}
			return []byte(`[]`), nil
		},
	}
	lister := &mockLister{
		items: []upstream.VideoItem{
			{Bvid: "BVbrandnew01", Title: "new"},
			{Bvid: "BVexisting01", Title: "known"},
			{Bvid: "", Title: "charging page filler"},
			{Bvid: "BVbroken0001", Title: "broken"},
		},
		statErr: map[string]error{"BVbroken0001": errors.New("stat endpoint down")},
	}
	svc := NewAccountSyncService(syncTestConfig(), st, lister, jobs.NewRegistry(), &testutil.MockLogger{}, testutil.NewMockMetrics())

	res, err := svc.SyncAccount(context.Background(), models.Account{
		ID:          9,
		Name:        "主号",
		HomepageURL: "https://space.bilibili.com/1472906636",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.Total, "skipped and failed items never reach the store")

	upserts := st.CallsFor("upsert")
	require.Len(t, upserts, 1)
	assert.Equal(t, models.TableAccountVideos, upserts[0].Table)
	assert.Equal(t, "account_id,bvid", upserts[0].OnConflict)
	rows, ok := upserts[0].Body.([]models.AccountVideo)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "BVbrandnew01", rows[0].Bvid, "result order follows the upload list")
	assert.Equal(t, "BVexisting01", rows[1].Bvid)
}

func TestSyncAccount_BadHomepage(t *testing.T) {
	svc := NewAccountSyncService(syncTestConfig(), &testutil.MockStore{}, &mockLister{}, jobs.NewRegistry(), &testutil.MockLogger{}, testutil.NewMockMetrics())

	_, err := svc.SyncAccount(context.Background(), models.Account{HomepageURL: "https://example.com/profile"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no mid")
}

func TestSyncAll_BrokenAccountDoesNotAbort(t *testing.T) {
	st := &testutil.MockStore{
		SelectFn: func(table string, q url.Values) ([]byte, error) {
			if table == models.TableAccounts {
				return []byte(`[
					{"id":1,"name":"主号","homepage_url":"https://space.bilibili.com/100"},
					{"id":2,"name":"坏号","homepage_url":"https://example.com/nope"},
					{"id":3,"name":"备用号","homepage_url":"https://space.bilibili.com/300"}
				]`), nil
			}
			return []byte(`[]`), nil
		},
	}
	svc := NewAccountSyncService(syncTestConfig(), st, &mockLister{}, jobs.NewRegistry(), &testutil.MockLogger{}, testutil.NewMockMetrics())

	var progressed []AccountOutcome
	res := svc.SyncAll(context.Background(), func(o AccountOutcome) { progressed = append(progressed, o) })

	require.Len(t, res.Results, 3)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, res.Results[0].Error)
	assert.Contains(t, res.Results[1].Error, "no mid")
	assert.Empty(t, res.Results[2].Error)
	assert.Len(t, progressed, 3)
}

func TestStartSyncAll_JobLifecycle(t *testing.T) {
	st := &testutil.MockStore{
		SelectFn: func(table string, q url.Values) ([]byte, error) {
			if table == models.TableAccounts {
				return []byte(`[
					{"id":1,"name":"主号","homepage_url":"https://space.bilibili.com/100"},
					{"id":2,"name":"坏号","homepage_url":"https://example.com/nope"}
				]`), nil
			}
			return []byte(`[]`), nil
		},
	}
	registry := jobs.NewRegistry()
	svc := NewAccountSyncService(syncTestConfig(), st, &mockLister{}, registry, &testutil.MockLogger{}, testutil.NewMockMetrics())

	job := svc.StartSyncAll()
	assert.Equal(t, "account_sync", job.Kind)

	require.Eventually(t, func() bool {
		got, ok := registry.Get(job.ID)
		return ok && got.Status == jobs.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	got, _ := registry.Get(job.ID)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 2, got.Processed)
	assert.Equal(t, 1, got.Success)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "account:2", got.Failures[0].Identifier)
}
