// Package browser wraps the headless-browser capability the risk ladder
// escalates to: open a URL, dwell, then read document.cookie or the rendered
// DOM. The capability is gated by configuration; when disabled a noop
// implementation reports itself unavailable and the ladder stops early.
package browser

import (
	"context"
	"errors"
	"time"
	"vidops/internal/providers"
	"vidops/internal/structures"
)

var ErrDisabled = errors.New("headless browser disabled")

type Browser interface {
	Enabled() bool
	// ReadCookies opens the URL, waits out the dwell and returns
	// document.cookie as one header-ready string.
	ReadCookies(ctx context.Context, url string, dwell time.Duration) (string, error)
	// RenderHTML opens the URL, waits out the dwell and returns the rendered
	// document markup.
	RenderHTML(ctx context.Context, url string, dwell time.Duration) (string, error)
	// CapturedResponses opens the URL and collects response bodies of XHR
	// calls whose URL contains the needle, until the dwell elapses.
	CapturedResponses(ctx context.Context, url, needle string, dwell time.Duration) ([]string, error)
}

func NewBrowser(conf *structures.Config, logger providers.Logger) Browser {
	if !conf.Upstream.Headless {
		logger.Infof(providers.TypeApp, "Headless browser disabled")
		return &noopBrowser{}
	}
	logger.Infof(providers.TypeApp, "Headless browser enabled")
	return newChromeBrowser(conf, logger)
}

type noopBrowser struct{}

func (n *noopBrowser) Enabled() bool { return false }

func (n *noopBrowser) ReadCookies(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", ErrDisabled
}

func (n *noopBrowser) RenderHTML(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", ErrDisabled
}

func (n *noopBrowser) CapturedResponses(_ context.Context, _, _ string, _ time.Duration) ([]string, error) {
	return nil, ErrDisabled
}
