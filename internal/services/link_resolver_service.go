package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"vidops/internal/errs"
	"vidops/internal/providers"
	"vidops/internal/structures"
	"vidops/internal/upstream"

	json "github.com/goccy/go-json"
)

// LinkResult is what a resolver hands back: the canonical product URL and
// its primary identifier when recognized, or a best-effort title/price/cover
// trio when the commerce API refused.
type LinkResult struct {
	Platform     string `json:"platform"`
	CanonicalURL string `json:"canonical_url,omitempty"`
	ProductID    string `json:"product_id,omitempty"`
	Title        string `json:"title,omitempty"`
	Price        string `json:"price,omitempty"`
	Cover        string `json:"cover,omitempty"`
}

type LinkResolverServiceInterface interface {
	Resolve(ctx context.Context, rawURL string) (*LinkResult, error)
}

type httpDoer interface {
	Do(ctx context.Context, r upstream.Request) (*upstream.Response, error)
}

type LinkResolverService struct {
	conf   *structures.Config
	client httpDoer
	logger providers.Logger
}

func NewLinkResolverService(conf *structures.Config, client *upstream.Client, logger providers.Logger) LinkResolverServiceInterface {
	return &LinkResolverService{conf: conf, client: client, logger: logger}
}

func (s *LinkResolverService) Resolve(ctx context.Context, rawURL string) (*LinkResult, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return nil, errs.NewUserError("not a resolvable link: %s", rawURL)
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case strings.Contains(host, "jd.com") || strings.Contains(host, "3.cn"):
		return s.resolveMarketplace(ctx, parsed.String())
	case strings.Contains(host, "tmall.com") || strings.Contains(host, "taobao.com"):
		return s.resolveTokenized(ctx, parsed)
	case strings.Contains(host, "yangkeduo.com") || strings.Contains(host, "pinduoduo.com"):
		return s.resolveCommerceAPI(ctx, parsed.String())
	}
	return nil, errs.NewUserError("unsupported link host: %s", host)
}

var (
	canonicalSKU = regexp.MustCompile(`item\.jd\.com/(\d+)\.html`)
	hrlPattern   = regexp.MustCompile(`var hrl\s*=\s*'([^']+)'`)
)

// resolveMarketplace chains the self-run marketplace's short links by hand:
// inspect Location headers without following, read the affiliate landing
// page's hrl variable when a hop lands there, stop at the canonical
// item.jd.com/SKU.html form. Three hops is enough for every observed chain.
func (s *LinkResolverService) resolveMarketplace(ctx context.Context, current string) (*LinkResult, error) {
	for hop := 0; hop < 3; hop++ {
		if m := canonicalSKU.FindStringSubmatch(current); m != nil {
			return &LinkResult{
				Platform:     "jd",
				CanonicalURL: fmt.Sprintf("https://item.jd.com/%s.html", m[1]),
				ProductID:    m[1],
			}, nil
		}

		resp, err := s.client.Do(ctx, upstream.Request{
			URL:      current,
			Referer:  "https://www.jd.com/",
			NoFollow: true,
		})
		if err != nil {
			return nil, err
		}

		if loc := resp.Header.Get("Location"); resp.StatusCode >= 300 && resp.StatusCode < 400 && loc != "" {
			current = absolutize(current, loc)
			continue
		}
		if m := hrlPattern.FindStringSubmatch(string(resp.Body)); m != nil {
			current = absolutize(current, m[1])
			continue
		}
		break
	}

	if m := canonicalSKU.FindStringSubmatch(current); m != nil {
		return &LinkResult{
			Platform:     "jd",
			CanonicalURL: fmt.Sprintf("https://item.jd.com/%s.html", m[1]),
			ProductID:    m[1],
		}, nil
	}
	return nil, &errs.UpstreamError{Message: "short link chain ended without a canonical item url: " + current}
}

func absolutize(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// resolveTokenized handles the marketplace whose redirect target carries the
// answer in its query: tar holds the canonical link, id is the last resort.
// When the pasted link itself carries neither, one non-following hop against
// the short domain yields the tokenized redirect to read them from.
func (s *LinkResolverService) resolveTokenized(ctx context.Context, parsed *url.URL) (*LinkResult, error) {
	if result, ok := tokenizedResult(parsed); ok {
		return result, nil
	}

	resp, err := s.client.Do(ctx, upstream.Request{
		URL:      parsed.String(),
		Referer:  "https://www.taobao.com/",
		NoFollow: true,
	})
	if err != nil {
		return nil, err
	}
	if loc := resp.Header.Get("Location"); resp.StatusCode >= 300 && resp.StatusCode < 400 && loc != "" {
		target, perr := url.Parse(absolutize(parsed.String(), loc))
		if perr == nil {
			if result, ok := tokenizedResult(target); ok {
				return result, nil
			}
		}
	}
	return nil, errs.NewUserError("tokenized link carries neither tar nor id: %s", parsed.String())
}

func tokenizedResult(u *url.URL) (*LinkResult, bool) {
	query := u.Query()
	if tar := query.Get("tar"); tar != "" {
		target, err := url.Parse(tar)
		productID := ""
		if err == nil {
			productID = target.Query().Get("id")
		}
		return &LinkResult{
			Platform:     "taobao",
			CanonicalURL: tar,
			ProductID:    productID,
		}, true
	}
	if id := query.Get("id"); id != "" {
		return &LinkResult{
			Platform:     "taobao",
			CanonicalURL: u.String(),
			ProductID:    id,
		}, true
	}
	return nil, false
}

type commerceEnvelope struct {
	GoodsDetail []struct {
		GoodsID   json.RawMessage `json:"goods_id"`
		GoodsName string          `json:"goods_name"`
		MinPrice  int64           `json:"min_group_price"`
		Thumbnail string          `json:"goods_thumbnail_url"`
	} `json:"goods_detail_response"`
	ErrorResponse *struct {
		ErrorMsg string `json:"error_msg"`
	} `json:"error_response"`
}

// resolveCommerceAPI calls the MD5-signed commerce API, falling back to one
// HTML fetch against the item/detail subdomains when access is denied.
func (s *LinkResolverService) resolveCommerceAPI(ctx context.Context, rawURL string) (*LinkResult, error) {
	goodsID := extractGoodsID(rawURL)

	if s.conf.Commerce.AppKey != "" {
		result, err := s.callSignedAPI(ctx, rawURL, goodsID)
		if err == nil {
			return result, nil
		}
		s.logger.Warnf(providers.TypeUpstream, "signed commerce API refused %s: %s", rawURL, err)
	}

	return s.scrapeDetail(ctx, rawURL, goodsID)
}

func extractGoodsID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, key := range []string{"goods_id", "sku", "id"} {
		if v := parsed.Query().Get(key); v != "" {
			return v
		}
	}
	return ""
}

func (s *LinkResolverService) callSignedAPI(ctx context.Context, rawURL, goodsID string) (*LinkResult, error) {
	apiBase := s.conf.Commerce.APIBase
	if apiBase == "" {
		apiBase = "https://gw-api.pinduoduo.com/api/router"
	}

	params := map[string]string{
		"type":      "pdd.ddk.goods.detail",
		"client_id": s.conf.Commerce.AppKey,
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
	}
	if goodsID != "" {
		params["goods_id_list"] = "[" + goodsID + "]"
	} else {
		params["goods_sign_list"] = `["` + rawURL + `"]`
	}
	params["sign"] = signCommerceParams(params, s.conf.Commerce.AppSecret)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	resp, err := s.client.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		URL:    apiBase + "?" + form.Encode(),
	})
	if err != nil {
		return nil, err
	}

	var env commerceEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, &errs.UpstreamError{Status: resp.StatusCode, Message: "decode: " + err.Error()}
	}
	if env.ErrorResponse != nil {
		return nil, &errs.UpstreamError{Message: env.ErrorResponse.ErrorMsg}
	}
	if len(env.GoodsDetail) == 0 {
		return nil, &errs.UpstreamError{Message: "commerce API returned no goods"}
	}

	item := env.GoodsDetail[0]
	id := strings.Trim(string(item.GoodsID), `"`)
	return &LinkResult{
		Platform:     "pdd",
		CanonicalURL: "https://mobile.yangkeduo.com/goods.html?goods_id=" + id,
		ProductID:    id,
		Title:        item.GoodsName,
		Price:        formatCents(item.MinPrice),
		Cover:        item.Thumbnail,
	}, nil
}

// signCommerceParams is the platform's MD5 scheme: secret + sorted key/value
// concatenation + secret, uppercased.
func signCommerceParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(secret)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(secret)

	digest := md5.Sum([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(digest[:]))
}

// scrapeDetail does one HTML fetch and runs the layered extractors. The
// upstream's markup is intentionally malformed, so a real HTML parser loses
// to this regex ladder in practice.
func (s *LinkResolverService) scrapeDetail(ctx context.Context, rawURL, goodsID string) (*LinkResult, error) {
	resp, err := s.client.Do(ctx, upstream.Request{URL: rawURL, Referer: rawURL})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errs.UpstreamError{Status: resp.StatusCode, Message: "detail page fetch failed"}
	}
	html := string(resp.Body)

	result := &LinkResult{Platform: "pdd", CanonicalURL: rawURL, ProductID: goodsID}
	result.Title = ExtractTitle(html)
	if price, ok := ExtractSkuPrice(html, goodsID); ok {
		result.Price = price
	}
	if m := coverPattern.FindStringSubmatch(html); m != nil {
		result.Cover = m[1]
	}
	return result, nil
}

var (
	coverPattern   = regexp.MustCompile(`"(?:thumb_url|goods_thumbnail_url|imageUrl)"\s*:\s*"([^"]+)"`)
	skuKeyPattern  = regexp.MustCompile(`"(\d{6,})"\s*:\s*\{`)
	pricePattern   = regexp.MustCompile(`"(?:subPrice|priceText)"\s*:\s*"?([0-9.¥]+)"?`)
	titlePatterns  = regexp.MustCompile(`"(?:itemName|title|skuName)"\s*:\s*"([^"]+)"`)
	htmlTitleOpen  = "<title>"
	htmlTitleClose = "</title>"
)

// ExtractSkuPrice walks the page for sku-keyed JSON objects and reads the
// subPrice/priceText of the requested sku, or of the first sku that carries
// one when the requested sku is absent.
func ExtractSkuPrice(html, sku string) (string, bool) {
	if sku != "" {
		if obj, ok := balancedObjectAfter(html, `"`+sku+`"`); ok {
			if m := pricePattern.FindStringSubmatch(obj); m != nil {
				return strings.Trim(m[1], "¥"), true
			}
		}
	}

	for _, m := range skuKeyPattern.FindAllStringSubmatchIndex(html, -1) {
		key := html[m[2]:m[3]]
		obj, ok := balancedObjectAfter(html[m[0]:], `"`+key+`"`)
		if !ok {
			continue
		}
		if pm := pricePattern.FindStringSubmatch(obj); pm != nil {
			return strings.Trim(pm[1], "¥"), true
		}
	}
	return "", false
}

// balancedObjectAfter isolates the JSON object that follows `"key":` by
// walking balanced braces, string-awareness included.
func balancedObjectAfter(html, key string) (string, bool) {
	idx := strings.Index(html, key)
	if idx < 0 {
		return "", false
	}
	rest := html[idx+len(key):]
	open := strings.Index(rest, "{")
	if open < 0 || !strings.Contains(rest[:open], ":") {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[open : i+1], true
			}
		}
	}
	return "", false
}

var titleBlacklist = []string{"验证", "登录", "404", "出错", "页面不存在", "access denied"}

// ExtractTitle picks the longest plausible title among the JSON field
// candidates and the <title> tag.
func ExtractTitle(html string) string {
	var candidates []string
	for _, m := range titlePatterns.FindAllStringSubmatch(html, -1) {
		candidates = append(candidates, m[1])
	}
	if open := strings.Index(html, htmlTitleOpen); open >= 0 {
		rest := html[open+len(htmlTitleOpen):]
		if end := strings.Index(rest, htmlTitleClose); end >= 0 {
			candidates = append(candidates, strings.TrimSpace(rest[:end]))
		}
	}

	best := ""
	for _, c := range candidates {
		if c == "" || blacklisted(c) {
			continue
		}
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

func blacklisted(s string) bool {
	lowered := strings.ToLower(s)
	for _, bad := range titleBlacklist {
		if strings.Contains(lowered, bad) {
			return true
		}
	}
	return false
}

func formatCents(cents int64) string {
	if cents <= 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", float64(cents)/100)
}
