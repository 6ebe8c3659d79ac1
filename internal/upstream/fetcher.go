package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"vidops/internal/browser"
	"vidops/internal/errs"
	"vidops/internal/providers"
	"vidops/internal/structures"

	"github.com/PuerkitoBio/goquery"
)

// FlexInt tolerates the platform's habit of sending counters as numbers,
// numeric strings, or placeholder dashes.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "--" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// VideoItem is one raw record from the creator's upload list.
type VideoItem struct {
	Aid         int64   `json:"aid"`
	Bvid        string  `json:"bvid"`
	Title       string  `json:"title"`
	Pic         string  `json:"pic"`
	Length      string  `json:"length"`
	Created     int64   `json:"created"`
	Play        FlexInt `json:"play"`
	Comment     FlexInt `json:"comment"`
	VideoReview FlexInt `json:"video_review"`
	Author      string  `json:"author"`
	Mid         int64   `json:"mid"`
	Description string  `json:"description"`
}

// Stats carries one video's counters. Pointers keep "the endpoint said zero"
// distinct from "the endpoint omitted the field".
type Stats struct {
	View     *int64 `json:"view"`
	Like     *int64 `json:"like"`
	Favorite *int64 `json:"favorite"`
	Reply    *int64 `json:"reply"`
	Danmaku  *int64 `json:"danmaku"`
}

type arcSearchEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		List struct {
			Vlist []VideoItem `json:"vlist"`
		} `json:"list"`
	} `json:"data"`
}

type statEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    Stats  `json:"data"`
}

type viewEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Stat Stats `json:"stat"`
	} `json:"data"`
}

const (
	defaultAPIBase   = "https://api.bilibili.com"
	defaultSpaceBase = "https://space.bilibili.com"
	listAttempts     = 5
	statAttempts     = 2
)

// Fetcher drives the signed video-list retrieval and the per-video stat
// lookups, escalating through browser-assisted rungs when the platform
// answers with a risk rejection.
type Fetcher struct {
	client  *Client
	signer  *Signer
	browser browser.Browser
	conf    *structures.Config
	logger  providers.Logger

	// Overridable for tests against a local fake upstream.
	APIBase   string
	SpaceBase string
	FingerURL string
}

func NewFetcher(client *Client, signer *Signer, b browser.Browser, conf *structures.Config, logger providers.Logger) *Fetcher {
	return &Fetcher{
		client:    client,
		signer:    signer,
		browser:   b,
		conf:      conf,
		logger:    logger,
		APIBase:   defaultAPIBase,
		SpaceBase: defaultSpaceBase,
		FingerURL: fingerSpiURL,
	}
}

func (f *Fetcher) uploadPageURL(mid int64) string {
	return fmt.Sprintf("%s/%d/video", f.SpaceBase, mid)
}

// FetchVideoPage retrieves one page of a creator's uploads. The rungs, in
// order: signed call with retries and forced key refreshes, signed call with
// a browser-acquired cookie, HTML scrape of the rendered upload page.
func (f *Fetcher) FetchVideoPage(ctx context.Context, mid int64, pn, ps int) ([]VideoItem, error) {
	cookie, err := f.assembleCookie(ctx)
	if err != nil {
		f.logger.Warnf(providers.TypeUpstream, "cookie assembly failed, continuing with synthetic values: %s", err)
		cookie = supplementCookie("")
	}

	list, lastErr := f.signedListCall(ctx, mid, pn, ps, cookie, true, listAttempts)
	if lastErr == nil {
		return list, nil
	}
	if !isRiskFailure(lastErr) {
		return nil, lastErr
	}

	if !f.browser.Enabled() {
		return nil, &errs.UpstreamRiskError{Message: lastErr.Error()}
	}

	// Rung 2: cookie harvested from a real browser session, retried with the
	// fingerprint blob frozen so it matches what that session reported.
	if f.conf.Upstream.Cookie == "" {
		browserCookie, berr := f.browser.ReadCookies(ctx, f.uploadPageURL(mid), f.dwell())
		if berr != nil {
			f.logger.Warnf(providers.TypeUpstream, "browser cookie rung failed: %s", berr)
		} else {
			list, err = f.signedListCall(ctx, mid, pn, ps, supplementCookie(browserCookie), false, 1)
			if err == nil {
				return list, nil
			}
			lastErr = err
		}
	}

	if isRiskFailure(lastErr) {
		html, berr := f.browser.RenderHTML(ctx, f.uploadPageURL(mid), f.dwell())
		if berr == nil {
			if scraped := parseCardGrid(html); len(scraped) > 0 {
				return scraped, nil
			}
			f.logger.Warnf(providers.TypeUpstream, "rendered upload page yielded no cards for mid=%d", mid)
		} else {
			f.logger.Warnf(providers.TypeUpstream, "browser render rung failed: %s", berr)
		}
	}

	return nil, &errs.UpstreamError{Message: fmt.Sprintf("video list exhausted all strategies for mid=%d: %s", mid, lastErr)}
}

func (f *Fetcher) signedListCall(ctx context.Context, mid int64, pn, ps int, cookie string, perturb bool, attempts int) (items []VideoItem, err error) {
	// The pair a failed chain leaves behind must not seed the next call's
	// first attempt.
	defer func() {
		if err != nil {
			f.signer.Forget()
		}
	}()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &errs.UpstreamError{Message: ctx.Err().Error()}
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}

		keys, err := f.signer.Keys(ctx, attempt > 0)
		if err != nil {
			lastErr = err
			continue
		}

		signed := SignParams(baseSignedParams(mid, pn, ps, perturb), keys.Img, keys.Sub)
		var env arcSearchEnvelope
		err = f.client.GetJSON(ctx, Request{
			URL:     f.APIBase + "/x/space/wbi/arc/search",
			Query:   signed,
			Referer: f.uploadPageURL(mid),
			Origin:  "https://space.bilibili.com",
			Cookie:  cookie,
		}, &env)
		if err != nil {
			lastErr = err
			continue
		}
		if env.Code != 0 {
			lastErr = &errs.UpstreamError{Message: fmt.Sprintf("arc/search code=%d message=%s", env.Code, env.Message)}
			continue
		}
		return env.Data.List.Vlist, nil
	}
	return nil, lastErr
}

func (f *Fetcher) dwell() time.Duration {
	if f.conf.Upstream.BrowserDwell > 0 {
		return f.conf.Upstream.BrowserDwell
	}
	return 6 * time.Second
}

func isRiskFailure(err error) bool {
	var riskErr *errs.UpstreamRiskError
	if errors.As(err, &riskErr) {
		return true
	}
	return err != nil && IsRiskMessage(err.Error())
}

// FetchVideoStats looks up one video's counters: archive/stat first, the
// view endpoint's stat sub-object when that answers a non-zero code.
func (f *Fetcher) FetchVideoStats(ctx context.Context, bvid string) (*Stats, error) {
	var lastErr error
	for attempt := 0; attempt < statAttempts; attempt++ {
		var env statEnvelope
		err := f.client.GetJSON(ctx, Request{
			URL:     f.APIBase + "/x/web-interface/archive/stat",
			Query:   url.Values{"bvid": {bvid}},
			Referer: "https://www.bilibili.com/video/" + bvid,
			Cookie:  f.conf.Upstream.Cookie,
		}, &env)
		if err != nil {
			lastErr = err
			continue
		}
		if env.Code != 0 {
			lastErr = &errs.UpstreamError{Message: fmt.Sprintf("archive/stat code=%d message=%s", env.Code, env.Message)}
			break
		}
		return &env.Data, nil
	}

	for attempt := 0; attempt < statAttempts; attempt++ {
		var env viewEnvelope
		err := f.client.GetJSON(ctx, Request{
			URL:     f.APIBase + "/x/web-interface/view",
			Query:   url.Values{"bvid": {bvid}},
			Referer: "https://www.bilibili.com/video/" + bvid,
			Cookie:  f.conf.Upstream.Cookie,
		}, &env)
		if err != nil {
			lastErr = err
			continue
		}
		if env.Code != 0 {
			lastErr = &errs.UpstreamError{Message: fmt.Sprintf("view code=%d message=%s", env.Code, env.Message)}
			continue
		}
		return &env.Data.Stat, nil
	}
	return nil, lastErr
}

var (
	bvidPattern = regexp.MustCompile(`BV[0-9A-Za-z]{10}`)
	datePattern = regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}|\d{1,2}-\d{1,2}`)
)

// parseCardGrid extracts the visible upload cards of a rendered space page.
// The scraped subset is structurally equivalent to a signed-call record.
func parseCardGrid(html string) []VideoItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var items []VideoItem
	doc.Find("li.small-item, .bili-video-card").Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Find("a").First().Attr("href")
		bvid := bvidPattern.FindString(href)
		if bvid == "" {
			bvid = bvidPattern.FindString(card.Text())
		}
		if bvid == "" {
			return
		}

		item := VideoItem{Bvid: bvid}
		item.Title = strings.TrimSpace(card.Find(".title, .bili-video-card__info--tit").First().Text())
		if cover, ok := card.Find("img").First().Attr("src"); ok {
			item.Pic = cover
		} else if cover, ok := card.Find("img").First().Attr("data-src"); ok {
			item.Pic = cover
		}
		item.Length = strings.TrimSpace(card.Find(".length, .bili-video-card__stats__duration").First().Text())
		item.Play = FlexInt(parseCount(card.Find(".play, .bili-video-card__stats--item").First().Text()))
		item.Comment = FlexInt(parseCount(card.Find(".comment").First().Text()))
		if dateText := datePattern.FindString(card.Find(".time, .bili-video-card__info--date").Text()); dateText != "" {
			item.Created = parseCardDate(dateText)
		}
		items = append(items, item)
	})
	return items
}

// parseCount folds "3.5万" style display counters down to an integer.
func parseCount(text string) int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	mult := int64(1)
	if strings.Contains(text, "万") {
		mult = 10_000
		text = strings.ReplaceAll(text, "万", "")
	} else if strings.Contains(text, "亿") {
		mult = 100_000_000
		text = strings.ReplaceAll(text, "亿", "")
	}
	text = strings.TrimSpace(strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, text))
	if text == "" {
		return 0
	}
	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return int64(val * float64(mult))
}

func parseCardDate(text string) int64 {
	now := time.Now()
	if t, err := time.ParseInLocation("2006-1-2", text, now.Location()); err == nil {
		return t.Unix()
	}
	if t, err := time.ParseInLocation("1-2", text, now.Location()); err == nil {
		return t.AddDate(now.Year(), 0, 0).Unix()
	}
	return 0
}
