package upstream

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"vidops/internal/browser"
	"vidops/internal/errs"
	"vidops/internal/providers"

	json "github.com/goccy/go-json"
)

// QuestionHit is one parsed search result.
type QuestionHit struct {
	ID    int64
	Title string
	URL   string
}

// QuestionDetail carries the counters a snapshot stores.
type QuestionDetail struct {
	Title       string
	VisitCount  int64
	AnswerCount int64
}

const (
	defaultQABase      = "https://www.zhihu.com"
	searchPageSize     = 20
	searchPagesPerWord = 3
)

// QuestionClient enumerates and inspects tracked questions on the Q&A
// platform. Search goes through the public JSON endpoint; when that is
// blocked the browser renders the search page and the XHR responses are
// read as they fly past.
type QuestionClient struct {
	client  *Client
	browser browser.Browser
	logger  providers.Logger

	// Base is overridable for tests against a local fake upstream.
	Base string
}

func NewQuestionClient(client *Client, b browser.Browser, logger providers.Logger) *QuestionClient {
	return &QuestionClient{client: client, browser: b, logger: logger, Base: defaultQABase}
}

var questionIDPattern = regexp.MustCompile(`question/(\d+)`)

// ExtractQuestionID pulls the numeric question id out of a question URL.
func ExtractQuestionID(raw string) (int64, error) {
	m := questionIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, errs.NewUserError("not a question url: %s", raw)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, errs.NewUserError("malformed question id in url: %s", raw)
	}
	return id, nil
}

type questionDetailEnvelope struct {
	Title       string `json:"title"`
	VisitCount  int64  `json:"visit_count"`
	AnswerCount int64  `json:"answer_count"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Detail fetches a question's title and counters.
func (qc *QuestionClient) Detail(ctx context.Context, questionID int64) (*QuestionDetail, error) {
	var env questionDetailEnvelope
	err := qc.client.GetJSON(ctx, Request{
		URL:     fmt.Sprintf("%s/api/v4/questions/%d", qc.Base, questionID),
		Query:   url.Values{"include": {"visit_count,answer_count"}},
		Referer: fmt.Sprintf("%s/question/%d", qc.Base, questionID),
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, &errs.UpstreamError{Message: env.Error.Message}
	}
	return &QuestionDetail{
		Title:       env.Title,
		VisitCount:  env.VisitCount,
		AnswerCount: env.AnswerCount,
	}, nil
}

type searchEnvelope struct {
	Data []struct {
		Type   string `json:"type"`
		Object struct {
			ID    json.RawMessage `json:"id"`
			Title string          `json:"title"`
			URL   string          `json:"url"`
			Question struct {
				ID    json.RawMessage `json:"id"`
				Title string          `json:"title"`
				URL   string          `json:"url"`
			} `json:"question"`
		} `json:"object"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Search enumerates question hits for one keyword: three pages at offsets
// 0/20/40, deduplicated within the keyword, browser XHR observation when the
// JSON endpoint rejects the call.
func (qc *QuestionClient) Search(ctx context.Context, keyword string) ([]QuestionHit, error) {
	var (
		hits    []QuestionHit
		lastErr error
		seen    = map[int64]bool{}
	)
	for page := 0; page < searchPagesPerWord; page++ {
		var env searchEnvelope
		err := qc.client.GetJSON(ctx, Request{
			URL: qc.Base + "/api/v4/search_v3",
			Query: url.Values{
				"t":          {"general"},
				"q":          {keyword},
				"correction": {"1"},
				"offset":     {strconv.Itoa(page * searchPageSize)},
				"limit":      {strconv.Itoa(searchPageSize)},
			},
			Referer: qc.Base + "/search?type=content&q=" + url.QueryEscape(keyword),
		}, &env)
		if err != nil {
			lastErr = err
			break
		}
		if env.Error != nil {
			lastErr = &errs.UpstreamError{Message: env.Error.Message}
			break
		}
		appendHits(&hits, seen, parseSearchEnvelope(env))
	}
	if lastErr == nil {
		return hits, nil
	}

	if !qc.browser.Enabled() {
		return hits, lastErr
	}
	qc.logger.Warnf(providers.TypeUpstream, "search API blocked for %q, observing browser XHR: %s", keyword, lastErr)

	bodies, err := qc.browser.CapturedResponses(ctx,
		qc.Base+"/search?type=content&q="+url.QueryEscape(keyword),
		"search_v3", 8*time.Second)
	if err != nil {
		return hits, lastErr
	}
	for _, body := range bodies {
		var env searchEnvelope
		if json.Unmarshal([]byte(body), &env) != nil {
			continue
		}
		appendHits(&hits, seen, parseSearchEnvelope(env))
	}
	return hits, nil
}

func appendHits(hits *[]QuestionHit, seen map[int64]bool, parsed []QuestionHit) {
	for _, h := range parsed {
		if !seen[h.ID] {
			seen[h.ID] = true
			*hits = append(*hits, h)
		}
	}
}

func parseSearchEnvelope(env searchEnvelope) []QuestionHit {
	var hits []QuestionHit
	for _, item := range env.Data {
		id, title, rawURL := flexID(item.Object.ID), item.Object.Title, item.Object.URL
		if item.Type != "search_result" && item.Type != "question" && id == 0 {
			continue
		}
		if item.Object.Question.Title != "" || flexID(item.Object.Question.ID) != 0 {
			id, title, rawURL = flexID(item.Object.Question.ID), item.Object.Question.Title, item.Object.Question.URL
		}
		if id == 0 {
			if fromURL, err := ExtractQuestionID(rawURL); err == nil {
				id = fromURL
			}
		}
		if id == 0 {
			continue
		}
		hits = append(hits, QuestionHit{
			ID:    id,
			Title: StripTags(title),
			URL:   fmt.Sprintf("https://www.zhihu.com/question/%d", id),
		})
	}
	return hits
}

// flexID accepts ids sent as numbers or strings.
func flexID(raw json.RawMessage) int64 {
	s := strings.Trim(string(raw), `"`)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// StripTags removes the emphasis markup search titles arrive with.
func StripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}
