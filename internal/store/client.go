// Package store talks to the hosted Postgres-over-HTTP datastore. It exposes
// the table-row CRUD surface the services build on and keeps the filter
// grammar (eq., in.(…), ilike.*…*) in one place.
package store

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
)

type ClientInterface interface {
	Select(ctx context.Context, table string, q url.Values) ([]byte, error)
	Insert(ctx context.Context, table string, body interface{}) ([]byte, error)
	Update(ctx context.Context, table string, patch interface{}, q url.Values) ([]byte, error)
	Upsert(ctx context.Context, table string, body interface{}, onConflict string) ([]byte, error)
	Delete(ctx context.Context, table string, q url.Values) error
}

type Client struct {
	base   string
	token  string
	http   *http.Client
	logger providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) ClientInterface {
	return &Client{
		base:   strings.TrimRight(conf.Store.URL, "/"),
		token:  conf.Store.ServiceToken,
		http:   &http.Client{Timeout: conf.Store.Timeout},
		logger: logger,
	}
}

// Filter builders keeping the grammar near its one definition.

func Eq(v interface{}) string    { return fmt.Sprintf("eq.%v", v) }
func Lt(v interface{}) string    { return fmt.Sprintf("lt.%v", v) }
func Ilike(needle string) string { return "ilike.*" + needle + "*" }
func In(values []string) string  { return "in.(" + strings.Join(values, ",") + ")" }

func (c *Client) Select(ctx context.Context, table string, q url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, table, q, nil, nil)
}

func (c *Client) Insert(ctx context.Context, table string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPost, table, nil, body, map[string]string{
		"Prefer": "return=representation",
	})
}

func (c *Client) Update(ctx context.Context, table string, patch interface{}, q url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, table, q, patch, map[string]string{
		"Prefer": "return=representation",
	})
}

func (c *Client) Upsert(ctx context.Context, table string, body interface{}, onConflict string) ([]byte, error) {
	q := url.Values{}
	if onConflict != "" {
		q.Set("on_conflict", onConflict)
	}
	return c.do(ctx, http.MethodPost, table, q, body, map[string]string{
		"Prefer": "resolution=merge-duplicates,return=representation",
	})
}

func (c *Client) Delete(ctx context.Context, table string, q url.Values) error {
	_, err := c.do(ctx, http.MethodDelete, table, q, nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, table string, q url.Values, body interface{}, headers map[string]string) ([]byte, error) {
	target := c.base + "/" + table
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, &errs.StoreError{StatusCode: 0, Message: "encode: " + err.Error()}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &errs.StoreError{StatusCode: 0, Message: err.Error()}
	}
	if c.token != "" {
		req.Header.Set("apikey", c.token)
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errs.StoreError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &errs.StoreError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warnf(providers.TypeApp, "store %s %s -> %d (%s)", method, table, resp.StatusCode, time.Since(start))
		return nil, &errs.StoreError{StatusCode: resp.StatusCode, Message: string(raw)}
	}
	return raw, nil
}

// DecodeRows converts a raw store response into typed rows so the pipelines
// never handle untyped maps.
func DecodeRows[T any](raw []byte) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, &errs.StoreError{StatusCode: 0, Message: "decode rows: " + err.Error()}
	}
	return rows, nil
}
