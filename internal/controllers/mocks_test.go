package controllers

import (
	"context"
	"net/url"
	"vidops/internal/jobs"
	"vidops/internal/models"
	"vidops/internal/services"

	json "github.com/goccy/go-json"
)

type mockAccountService struct {
	listRows   []models.Account
	listErr    error
	getAccount *models.Account
	getErr     error
	created    *models.Account
	createErr  error
	deleteErr  error
	videos     []models.AccountVideo
	videosErr  error
}

func (m *mockAccountService) List(context.Context) ([]models.Account, error) {
	return m.listRows, m.listErr
}

func (m *mockAccountService) GetByID(context.Context, int64) (*models.Account, error) {
	return m.getAccount, m.getErr
}

func (m *mockAccountService) Create(_ context.Context, a models.Account) (*models.Account, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.created != nil {
		return m.created, nil
	}
	return &a, nil
}

func (m *mockAccountService) Delete(context.Context, int64) error { return m.deleteErr }

func (m *mockAccountService) Videos(context.Context, int64) ([]models.AccountVideo, error) {
	return m.videos, m.videosErr
}

type mockSyncService struct {
	result  *services.SyncResult
	syncErr error
	job     *jobs.Job
}

func (m *mockSyncService) SyncAccount(context.Context, models.Account) (*services.SyncResult, error) {
	return m.result, m.syncErr
}

func (m *mockSyncService) SyncAll(context.Context, func(services.AccountOutcome)) *services.SyncAllResult {
	return &services.SyncAllResult{}
}

func (m *mockSyncService) StartSyncAll() *jobs.Job { return m.job }

type mockCatalogService struct {
	rows       json.RawMessage
	rowsErr    error
	reordered  []string
	reorderErr error
}

func (m *mockCatalogService) ListRows(_ context.Context, table string, filters url.Values) (json.RawMessage, error) {
	return m.rows, m.rowsErr
}

func (m *mockCatalogService) CreateRow(_ context.Context, table string, body json.RawMessage) (json.RawMessage, error) {
	return body, nil
}

func (m *mockCatalogService) PatchRow(_ context.Context, table, id string, patch json.RawMessage) (json.RawMessage, error) {
	return patch, nil
}

func (m *mockCatalogService) DeleteRow(context.Context, string, string) error { return nil }

func (m *mockCatalogService) ReorderSchemes(_ context.Context, ids []string) error {
	m.reordered = ids
	return m.reorderErr
}

type mockBlueLinkService struct {
	rows     json.RawMessage
	batchN   int
	batchErr error
}

func (m *mockBlueLinkService) List(context.Context, url.Values) (json.RawMessage, error) {
	return m.rows, nil
}

func (m *mockBlueLinkService) Create(_ context.Context, link models.BlueLink) (json.RawMessage, error) {
	raw, _ := json.Marshal([]models.BlueLink{link})
	return raw, nil
}

func (m *mockBlueLinkService) Patch(_ context.Context, id string, patch json.RawMessage) (json.RawMessage, error) {
	return patch, nil
}

func (m *mockBlueLinkService) Delete(context.Context, string) error { return nil }

func (m *mockBlueLinkService) BatchUpsert(context.Context, []models.BlueLink) (int, error) {
	return m.batchN, m.batchErr
}

type mockResolver struct {
	result *services.LinkResult
	err    error
}

func (m *mockResolver) Resolve(context.Context, string) (*services.LinkResult, error) {
	return m.result, m.err
}

type mockKeywordService struct {
	keywords  []models.Keyword
	createErr error
	questions []models.Question
	snapshots []models.QuestionStat
	selects   int
}

func (m *mockKeywordService) List(context.Context) ([]models.Keyword, error) {
	return m.keywords, nil
}

func (m *mockKeywordService) Create(_ context.Context, kw models.Keyword) (*models.Keyword, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &kw, nil
}

func (m *mockKeywordService) Delete(context.Context, int64) error { return nil }

func (m *mockKeywordService) Questions(context.Context, int64) ([]models.Question, error) {
	m.selects++
	return m.questions, nil
}

func (m *mockKeywordService) Snapshots(context.Context, int64) ([]models.QuestionStat, error) {
	m.selects++
	return m.snapshots, nil
}

type mockTrackerService struct {
	trackResult *services.TrackResult
	trackErr    error
	job         *jobs.Job
}

func (m *mockTrackerService) TrackSingle(context.Context, int64, string) (*services.TrackResult, error) {
	return m.trackResult, m.trackErr
}

func (m *mockTrackerService) StartSweep([]int64, bool) *jobs.Job { return m.job }

func (m *mockTrackerService) RunSweep(context.Context, string, []int64, bool) error { return nil }
