// Package upstream talks to the video platform and the other third-party
// services. It owns the header conventions those services expect, the
// signed-query scheme, and the risk-escalation ladder for the video list.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"vidops/internal/errs"
	"vidops/internal/providers"
	"vidops/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

const DesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Request describes one outbound call. NoFollow keeps redirects
// uninterpreted so the caller can inspect Location hops itself.
type Request struct {
	Method   string
	URL      string
	Query    url.Values
	Referer  string
	Origin   string
	Cookie   string
	Body     []byte
	NoFollow bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client struct {
	follow   *http.Client
	noFollow *http.Client
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewClient(timeout time.Duration, logger providers.Logger, metrics providers.MetricsProviderInterface) *Client {
	transport := &http.Transport{
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		follow: &http.Client{Timeout: timeout, Transport: transport},
		noFollow: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger,
		metrics: metrics,
	}
}

// NewClientFromConfig builds the client with the configured upstream timeout.
func NewClientFromConfig(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *Client {
	return NewClient(conf.Upstream.Timeout, logger, metrics)
}

// Do performs the call and returns the response regardless of status code.
// Transport-level failures come back as UpstreamError with status 0.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	target := r.URL
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.Query.Encode()
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &errs.UpstreamError{Message: err.Error()}
	}
	req.Header.Set("User-Agent", DesktopUA)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Encoding", "gzip")
	if r.Referer != "" {
		req.Header.Set("Referer", r.Referer)
	}
	if r.Origin != "" {
		req.Header.Set("Origin", r.Origin)
	}
	if r.Cookie != "" {
		req.Header.Set("Cookie", r.Cookie)
	}
	if len(r.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.follow
	if r.NoFollow {
		client = c.noFollow
	}

	start := time.Now()
	resp, err := client.Do(req)
	c.metrics.ObserveUpstreamDuration(r.URL, time.Since(start))
	if err != nil {
		c.metrics.IncUpstreamCalls(r.URL, "error")
		return nil, &errs.UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			c.metrics.IncUpstreamCalls(r.URL, "error")
			return nil, &errs.UpstreamError{Status: resp.StatusCode, Message: "gzip: " + gzErr.Error()}
		}
		defer gz.Close()
		reader = gz
	}

	raw, err := io.ReadAll(io.LimitReader(reader, 8<<20))
	if err != nil {
		c.metrics.IncUpstreamCalls(r.URL, "error")
		return nil, &errs.UpstreamError{Status: resp.StatusCode, Message: err.Error()}
	}

	c.metrics.IncUpstreamCalls(r.URL, fmt.Sprintf("%d", resp.StatusCode))
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// GetJSON performs a GET, requires a 2xx and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, r Request, out interface{}) error {
	r.Method = http.MethodGet
	return c.doJSON(ctx, r, out)
}

// PostJSON marshals payload, performs a POST and decodes the 2xx body.
func (c *Client) PostJSON(ctx context.Context, r Request, payload, out interface{}) error {
	r.Method = http.MethodPost
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &errs.UpstreamError{Message: err.Error()}
		}
		r.Body = raw
	}
	return c.doJSON(ctx, r, out)
}

func (c *Client) doJSON(ctx context.Context, r Request, out interface{}) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errs.UpstreamError{Status: resp.StatusCode, Message: truncate(string(resp.Body), 256)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &errs.UpstreamError{Status: resp.StatusCode, Message: "decode: " + err.Error()}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
