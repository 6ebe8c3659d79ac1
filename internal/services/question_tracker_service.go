package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"
	"vidops/internal/errs"
	"vidops/internal/fanout"
	"vidops/internal/jobs"
	"vidops/internal/models"
	"vidops/internal/providers"
	"vidops/internal/store"
	"vidops/internal/structures"
	"vidops/internal/upstream"
)

type TrackResult struct {
	QuestionID  int64  `json:"question_id"`
	Title       string `json:"title"`
	ViewCount   int64  `json:"view_count"`
	AnswerCount int64  `json:"answer_count"`
	ViewDelta   int64  `json:"view_delta"`
	AnswerDelta int64  `json:"answer_delta"`
}

type QuestionUpstream interface {
	Detail(ctx context.Context, questionID int64) (*upstream.QuestionDetail, error)
	Search(ctx context.Context, keyword string) ([]upstream.QuestionHit, error)
}

type QuestionTrackerServiceInterface interface {
	TrackSingle(ctx context.Context, keywordID int64, questionURL string) (*TrackResult, error)
	StartSweep(keywordIDs []int64, includeExisting bool) *jobs.Job
	RunSweep(ctx context.Context, jobID string, keywordIDs []int64, includeExisting bool) error
}

type QuestionTrackerService struct {
	conf     *structures.Config
	store    store.ClientInterface
	qa       QuestionUpstream
	registry *jobs.Registry
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	now      func() time.Time
}

func NewQuestionTrackerService(conf *structures.Config, st store.ClientInterface, qa QuestionUpstream, registry *jobs.Registry, logger providers.Logger, metrics providers.MetricsProviderInterface) QuestionTrackerServiceInterface {
	return &QuestionTrackerService{
		conf:     conf,
		store:    st,
		qa:       qa,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// TrackSingle ingests one question on demand under the given keyword and
// returns today's counters with their deltas.
func (s *QuestionTrackerService) TrackSingle(ctx context.Context, keywordID int64, questionURL string) (*TrackResult, error) {
	keyword, err := s.keywordByID(ctx, keywordID)
	if err != nil {
		return nil, err
	}

	questionID, err := upstream.ExtractQuestionID(questionURL)
	if err != nil {
		return nil, err
	}

	detail, err := s.qa.Detail(ctx, questionID)
	if err != nil {
		return nil, err
	}

	hit := upstream.QuestionHit{
		ID:    questionID,
		Title: detail.Title,
		URL:   fmt.Sprintf("https://www.zhihu.com/question/%d", questionID),
	}
	if err := s.ingestQuestion(ctx, hit, keyword.ID, detail); err != nil {
		return nil, err
	}

	viewDelta, answerDelta, err := s.latestDeltas(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return &TrackResult{
		QuestionID:  questionID,
		Title:       detail.Title,
		ViewCount:   detail.VisitCount,
		AnswerCount: detail.AnswerCount,
		ViewDelta:   viewDelta,
		AnswerDelta: answerDelta,
	}, nil
}

// ingestQuestion writes the question row, then the keyword edge, then
// today's snapshot. The question row must land before the edge so the pair
// upsert never references a missing question.
func (s *QuestionTrackerService) ingestQuestion(ctx context.Context, hit upstream.QuestionHit, keywordID int64, detail *upstream.QuestionDetail) error {
	now := s.now()
	firstKeyword, err := s.firstKeywordFor(ctx, hit.ID, keywordID)
	if err != nil {
		return err
	}

	question := models.Question{
		ID:             hit.ID,
		Title:          hit.Title,
		URL:            hit.URL,
		FirstKeywordID: firstKeyword,
		UpdatedAt:      models.TimestampUTC(now),
	}
	if _, err := s.store.Upsert(ctx, models.TableQuestions, question, "id"); err != nil {
		return err
	}

	firstSeen, err := s.edgeFirstSeen(ctx, hit.ID, keywordID)
	if err != nil {
		return err
	}
	if firstSeen == "" {
		firstSeen = models.TimestampUTC(now)
	}
	edge := models.QuestionKeyword{
		QuestionID: hit.ID,
		KeywordID:  keywordID,
		FirstSeen:  firstSeen,
		LastSeen:   models.TimestampUTC(now),
	}
	if _, err := s.store.Upsert(ctx, models.TableQuestionKeywords, edge, "question_id,keyword_id"); err != nil {
		return err
	}

	if detail == nil {
		return nil
	}
	snapshot := models.QuestionStat{
		QuestionID:   hit.ID,
		SnapshotDate: models.DateInShanghai(now),
		ViewCount:    detail.VisitCount,
		AnswerCount:  detail.AnswerCount,
	}
	_, err = s.store.Upsert(ctx, models.TableQuestionStats, snapshot, "question_id,snapshot_date")
	return err
}

// edgeFirstSeen reads the stored first_seen of an existing edge, empty when
// the pair is new. Re-upserting the stored value keeps it stable under
// merge-duplicates.
func (s *QuestionTrackerService) edgeFirstSeen(ctx context.Context, questionID, keywordID int64) (string, error) {
	q := url.Values{}
	q.Set("select", "first_seen")
	q.Set("question_id", store.Eq(questionID))
	q.Set("keyword_id", store.Eq(keywordID))
	raw, err := s.store.Select(ctx, models.TableQuestionKeywords, q)
	if err != nil {
		return "", err
	}
	rows, err := store.DecodeRows[struct {
		FirstSeen string `json:"first_seen"`
	}](raw)
	if err != nil {
		return "", err
	}
	if len(rows) > 0 {
		return rows[0].FirstSeen, nil
	}
	return "", nil
}

// firstKeywordFor keeps the keyword that first observed the question.
func (s *QuestionTrackerService) firstKeywordFor(ctx context.Context, questionID, fallback int64) (int64, error) {
	q := url.Values{}
	q.Set("select", "first_keyword_id")
	q.Set("id", store.Eq(questionID))
	raw, err := s.store.Select(ctx, models.TableQuestions, q)
	if err != nil {
		return 0, err
	}
	rows, err := store.DecodeRows[struct {
		FirstKeywordID int64 `json:"first_keyword_id"`
	}](raw)
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 && rows[0].FirstKeywordID != 0 {
		return rows[0].FirstKeywordID, nil
	}
	return fallback, nil
}

// latestDeltas compares the two most recent snapshots. When only one exists
// the deltas are zero. A missed sweep day widens the window: the comparison
// is deliberately latest-vs-previous, not today-vs-yesterday.
func (s *QuestionTrackerService) latestDeltas(ctx context.Context, questionID int64) (viewDelta, answerDelta int64, err error) {
	q := url.Values{}
	q.Set("question_id", store.Eq(questionID))
	q.Set("order", "snapshot_date.desc")
	q.Set("limit", "2")
	raw, err := s.store.Select(ctx, models.TableQuestionStats, q)
	if err != nil {
		return 0, 0, err
	}
	rows, err := store.DecodeRows[models.QuestionStat](raw)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) < 2 {
		return 0, 0, nil
	}
	return rows[0].ViewCount - rows[1].ViewCount, rows[0].AnswerCount - rows[1].AnswerCount, nil
}

func (s *QuestionTrackerService) keywordByID(ctx context.Context, keywordID int64) (*models.Keyword, error) {
	q := url.Values{}
	q.Set("id", store.Eq(keywordID))
	raw, err := s.store.Select(ctx, models.TableKeywords, q)
	if err != nil {
		return nil, err
	}
	rows, err := store.DecodeRows[models.Keyword](raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &errs.NotFound{Resource: fmt.Sprintf("keyword %d", keywordID)}
	}
	return &rows[0], nil
}

// StartSweep allocates the job and runs the sweep in the background.
func (s *QuestionTrackerService) StartSweep(keywordIDs []int64, includeExisting bool) *jobs.Job {
	job := s.registry.Create("question_sweep", 0)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.registry.Apply(job.ID, jobs.Update{
					Status: jobs.StatusPtr(jobs.StatusFailed),
					Error:  fmt.Sprintf("panic: %v", r),
				})
				s.metrics.IncJobsTotal("question_sweep", string(jobs.StatusFailed))
			}
		}()

		if err := s.RunSweep(context.Background(), job.ID, keywordIDs, includeExisting); err != nil {
			s.registry.Apply(job.ID, jobs.Update{
				Status: jobs.StatusPtr(jobs.StatusFailed),
				Error:  err.Error(),
			})
			s.metrics.IncJobsTotal("question_sweep", string(jobs.StatusFailed))
			return
		}
		s.registry.Apply(job.ID, jobs.Update{Status: jobs.StatusPtr(jobs.StatusSucceeded)})
		s.metrics.IncJobsTotal("question_sweep", string(jobs.StatusSucceeded))
	}()

	return job
}

// RunSweep enumerates search hits for every keyword, deduplicates questions
// across keywords, refreshes counters with bounded concurrency and writes
// question, edge and snapshot rows. Old snapshots are pruned at the end.
func (s *QuestionTrackerService) RunSweep(ctx context.Context, jobID string, keywordIDs []int64, includeExisting bool) error {
	s.registry.Apply(jobID, jobs.Update{Status: jobs.StatusPtr(jobs.StatusRunning)})

	keywords, err := s.sweepKeywords(ctx, keywordIDs)
	if err != nil {
		return err
	}

	// Phase 1: enumerate. questionKeywords records every (question, keyword)
	// pair seen; hits dedupes questions across keywords.
	hits := map[int64]upstream.QuestionHit{}
	var questionOrder []int64
	pairs := map[int64][]int64{}

	for _, kw := range keywords {
		found, searchErr := s.qa.Search(ctx, kw.Name)
		if searchErr != nil {
			s.logger.Warnf(providers.TypeJob, "search failed for keyword %q: %s", kw.Name, searchErr)
			s.registry.Apply(jobID, jobs.Update{Failures: []fanout.Failure{{
				Identifier: "keyword:" + kw.Name,
				Reason:     searchErr.Error(),
			}}})
		}
		for _, hit := range found {
			if _, seen := hits[hit.ID]; !seen {
				hits[hit.ID] = hit
				questionOrder = append(questionOrder, hit.ID)
			}
			pairs[hit.ID] = append(pairs[hit.ID], kw.ID)
		}

		if includeExisting {
			tracked, loadErr := s.trackedQuestions(ctx, kw.ID)
			if loadErr != nil {
				s.logger.Warnf(providers.TypeJob, "cannot load tracked questions for keyword %d: %s", kw.ID, loadErr)
				continue
			}
			for _, hit := range tracked {
				if _, seen := hits[hit.ID]; !seen {
					hits[hit.ID] = hit
					questionOrder = append(questionOrder, hit.ID)
				}
				pairs[hit.ID] = append(pairs[hit.ID], kw.ID)
			}
		}
	}

	s.registry.Apply(jobID, jobs.Update{Total: jobs.IntPtr(len(questionOrder))})

	// Phase 2: refresh counters with bounded concurrency.
	details := make(map[int64]*upstream.QuestionDetail, len(questionOrder))
	results, failures := fanout.Run(ctx, questionOrder, s.conf.Tracker.DetailConcurrency,
		func(id int64) string { return fmt.Sprintf("question:%d", id) },
		func(ctx context.Context, id int64) (*upstream.QuestionDetail, error) {
			return s.qa.Detail(ctx, id)
		})
	for i, id := range questionOrder {
		if results[i] != nil {
			details[id] = results[i]
		}
	}

	// Phase 3: persist. For each question the row precedes its edges; each
	// keyword edge is deduplicated per pair.
	for _, id := range questionOrder {
		hit := hits[id]
		detail := details[id]
		if detail == nil {
			s.registry.Apply(jobID, jobs.Update{AddProcessed: 1, AddFailed: 1})
			continue
		}
		if hit.Title == "" {
			hit.Title = detail.Title
		}

		ingested := true
		seenKeyword := map[int64]bool{}
		for i, kwID := range pairs[id] {
			if seenKeyword[kwID] {
				continue
			}
			seenKeyword[kwID] = true
			var kwDetail *upstream.QuestionDetail
			if i == 0 {
				kwDetail = detail
			}
			if ingestErr := s.ingestQuestion(ctx, hit, kwID, kwDetail); ingestErr != nil {
				s.logger.Errorf(providers.TypeJob, "ingest failed for question %d keyword %d: %s", id, kwID, ingestErr)
				s.registry.Apply(jobID, jobs.Update{Failures: []fanout.Failure{{
					Identifier: fmt.Sprintf("question:%d", id),
					Reason:     ingestErr.Error(),
				}}})
				ingested = false
				break
			}
		}
		up := jobs.Update{AddProcessed: 1}
		if ingested {
			up.AddSuccess = 1
		} else {
			up.AddFailed = 1
		}
		s.registry.Apply(jobID, up)
	}

	if len(failures) > 0 {
		s.registry.Apply(jobID, jobs.Update{Failures: failures})
	}

	if err := s.pruneSnapshots(ctx); err != nil {
		s.logger.Warnf(providers.TypeJob, "snapshot pruning failed: %s", err)
	}
	return nil
}

func (s *QuestionTrackerService) sweepKeywords(ctx context.Context, keywordIDs []int64) ([]models.Keyword, error) {
	q := url.Values{"order": {"id.asc"}}
	if len(keywordIDs) > 0 {
		ids := make([]string, len(keywordIDs))
		for i, id := range keywordIDs {
			ids[i] = fmt.Sprintf("%d", id)
		}
		sort.Strings(ids)
		q.Set("id", store.In(ids))
	}
	raw, err := s.store.Select(ctx, models.TableKeywords, q)
	if err != nil {
		return nil, err
	}
	return store.DecodeRows[models.Keyword](raw)
}

// trackedQuestions loads the questions previously seen under a keyword so a
// re-run refreshes them even when today's search no longer surfaces them.
func (s *QuestionTrackerService) trackedQuestions(ctx context.Context, keywordID int64) ([]upstream.QuestionHit, error) {
	q := url.Values{}
	q.Set("select", "question_id")
	q.Set("keyword_id", store.Eq(keywordID))
	raw, err := s.store.Select(ctx, models.TableQuestionKeywords, q)
	if err != nil {
		return nil, err
	}
	edges, err := store.DecodeRows[struct {
		QuestionID int64 `json:"question_id"`
	}](raw)
	if err != nil {
		return nil, err
	}
	hits := make([]upstream.QuestionHit, 0, len(edges))
	for _, e := range edges {
		hits = append(hits, upstream.QuestionHit{
			ID:  e.QuestionID,
			URL: fmt.Sprintf("https://www.zhihu.com/question/%d", e.QuestionID),
		})
	}
	return hits, nil
}

func (s *QuestionTrackerService) pruneSnapshots(ctx context.Context) error {
	horizon := s.now().AddDate(0, 0, -s.conf.Tracker.RetentionDays)
	q := url.Values{}
	q.Set("snapshot_date", store.Lt(models.DateInShanghai(horizon)))
	return s.store.Delete(ctx, models.TableQuestionStats, q)
}
