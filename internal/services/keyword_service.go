package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
	"vidops/internal/errs"
	"vidops/internal/models"
	"vidops/internal/store"
)

type KeywordServiceInterface interface {
	List(ctx context.Context) ([]models.Keyword, error)
	Create(ctx context.Context, keyword models.Keyword) (*models.Keyword, error)
	Delete(ctx context.Context, id int64) error
	Questions(ctx context.Context, keywordID int64) ([]models.Question, error)
	Snapshots(ctx context.Context, questionID int64) ([]models.QuestionStat, error)
}

type KeywordService struct {
	store store.ClientInterface
}

func NewKeywordService(st store.ClientInterface) KeywordServiceInterface {
	return &KeywordService{store: st}
}

func (s *KeywordService) List(ctx context.Context) ([]models.Keyword, error) {
	raw, err := s.store.Select(ctx, models.TableKeywords, url.Values{"order": {"id.asc"}})
	if err != nil {
		return nil, err
	}
	return store.DecodeRows[models.Keyword](raw)
}

func (s *KeywordService) Create(ctx context.Context, keyword models.Keyword) (*models.Keyword, error) {
	if strings.TrimSpace(keyword.Name) == "" {
		return nil, errs.NewUserError("keyword name must not be empty")
	}
	keyword.CreatedAt = models.TimestampUTC(time.Now())
	raw, err := s.store.Insert(ctx, models.TableKeywords, keyword)
	if err != nil {
		return nil, err
	}
	rows, err := store.DecodeRows[models.Keyword](raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &keyword, nil
	}
	return &rows[0], nil
}

// Delete drops the keyword and its question edges. Questions themselves stay
// tracked; they may still belong to other keywords.
func (s *KeywordService) Delete(ctx context.Context, id int64) error {
	edgeQ := url.Values{}
	edgeQ.Set("keyword_id", store.Eq(id))
	if err := s.store.Delete(ctx, models.TableQuestionKeywords, edgeQ); err != nil {
		return err
	}
	q := url.Values{}
	q.Set("id", store.Eq(id))
	return s.store.Delete(ctx, models.TableKeywords, q)
}

func (s *KeywordService) Questions(ctx context.Context, keywordID int64) ([]models.Question, error) {
	edgeQ := url.Values{}
	edgeQ.Set("select", "question_id")
	edgeQ.Set("keyword_id", store.Eq(keywordID))
	raw, err := s.store.Select(ctx, models.TableQuestionKeywords, edgeQ)
	if err != nil {
		return nil, err
	}
	edges, err := store.DecodeRows[struct {
		QuestionID int64 `json:"question_id"`
	}](raw)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return []models.Question{}, nil
	}

	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = strconv.FormatInt(e.QuestionID, 10)
	}

	q := url.Values{}
	q.Set("id", store.In(ids))
	q.Set("order", "updated_at.desc")
	rawQuestions, err := s.store.Select(ctx, models.TableQuestions, q)
	if err != nil {
		return nil, err
	}
	return store.DecodeRows[models.Question](rawQuestions)
}

func (s *KeywordService) Snapshots(ctx context.Context, questionID int64) ([]models.QuestionStat, error) {
	q := url.Values{}
	q.Set("question_id", store.Eq(questionID))
	q.Set("order", "snapshot_date.desc")
	raw, err := s.store.Select(ctx, models.TableQuestionStats, q)
	if err != nil {
		return nil, err
	}
	return store.DecodeRows[models.QuestionStat](raw)
}
