package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog/crawler/internal/config"
	"catalog/crawler/internal/domain"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// BrowserFetcher renders pages in a single headless Chromium tab.
// Navigations are serialized because the tab is shared mutable state.
type BrowserFetcher struct {
	mutex       sync.Mutex
	rl          ratelimit.Limiter
	browser     *rod.Browser
	page        *rod.Page
	idleTimeout time.Duration
}

func NewBrowserFetcher(cfg config.FetcherConfig) (*BrowserFetcher, error) {
	bin := cfg.BrowserBin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}

	l := launcher.New().Headless(cfg.Headless)
	if bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			log.Warnf("Failed to set user agent: %v", err)
		}
	}

	log.Infof("🌐 Browser session ready (headless=%t)", cfg.Headless)

	return &BrowserFetcher{
		rl:          newLimiter(cfg.MaxRequestsPerSecond),
		browser:     browser,
		page:        page,
		idleTimeout: cfg.IdleTimeout(),
	}, nil
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*RenderedPage, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.rl.Take()

	page := b.page.Context(ctx)
	if opts.Timeout > 0 {
		page = page.Timeout(opts.Timeout)
	}

	if err := page.Navigate(url); err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	if err := page.WaitLoad(); err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	// Persistent connections may never go idle, so the idle wait has its own bound.
	if opts.Wait == WaitNetworkIdle && b.idleTimeout > 0 {
		b.page.Context(ctx).Timeout(b.idleTimeout).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: fmt.Errorf("failed to read DOM: %w", err)}
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &RenderedPage{URL: finalURL, HTML: html}, nil
}

func (b *BrowserFetcher) Close() error {
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		return b.browser.Close()
	}
	return nil
}
