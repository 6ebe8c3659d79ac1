package browser

import (
	"context"
	"strings"
	"sync"
	"time"
	"vidops/internal/providers"
	"vidops/internal/structures"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

type chromeBrowser struct {
	conf   *structures.Config
	logger providers.Logger
}

func newChromeBrowser(conf *structures.Config, logger providers.Logger) Browser {
	return &chromeBrowser{conf: conf, logger: logger}
}

func (b *chromeBrowser) Enabled() bool { return true }

func (b *chromeBrowser) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if b.conf.Upstream.BrowserBinary != "" {
		opts = append(opts, chromedp.ExecPath(b.conf.Upstream.BrowserBinary))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

func (b *chromeBrowser) ReadCookies(ctx context.Context, url string, dwell time.Duration) (string, error) {
	allocCtx, cancelAlloc := b.allocator(ctx)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var pairs []string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(dwell),
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := network.GetCookies().Do(ctx)
			if err != nil {
				return err
			}
			for _, c := range cookies {
				pairs = append(pairs, c.Name+"="+c.Value)
			}
			return nil
		}),
	)
	if err != nil {
		return "", err
	}
	return strings.Join(pairs, "; "), nil
}

func (b *chromeBrowser) RenderHTML(ctx context.Context, url string, dwell time.Duration) (string, error) {
	allocCtx, cancelAlloc := b.allocator(ctx)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(dwell),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

func (b *chromeBrowser) CapturedResponses(ctx context.Context, url, needle string, dwell time.Duration) ([]string, error) {
	allocCtx, cancelAlloc := b.allocator(ctx)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var (
		mu      sync.Mutex
		bodies  []string
		pending []network.RequestID
	)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if strings.Contains(resp.Response.URL, needle) {
				mu.Lock()
				pending = append(pending, resp.RequestID)
				mu.Unlock()
			}
		}
	})

	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.Sleep(dwell),
		chromedp.ActionFunc(func(ctx context.Context) error {
			mu.Lock()
			ids := append([]network.RequestID(nil), pending...)
			mu.Unlock()
			for _, id := range ids {
				body, err := network.GetResponseBody(id).Do(ctx)
				if err != nil {
					continue
				}
				bodies = append(bodies, string(body))
			}
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return bodies, nil
}
