package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"catalog/crawler/internal/config"
	"catalog/crawler/internal/domain"
	"catalog/crawler/internal/proxy"

	log "github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// HTTPFetcher fetches raw server-rendered HTML without executing scripts.
// WaitStrategy is ignored.
type HTTPFetcher struct {
	rl            ratelimit.Limiter
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier
	userAgent     string

	respectRobots bool
	robotsMutex   sync.Mutex
	robots        map[string]*robotstxt.RobotsData
}

func NewHTTPFetcher(cfg config.FetcherConfig, proxySupplier proxy.ProxySupplier) *HTTPFetcher {
	client := resty.New().
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "es-ES,es;q=0.9,en;q=0.5").
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	return &HTTPFetcher{
		rl:            newLimiter(cfg.MaxRequestsPerSecond),
		httpClient:    client,
		proxySupplier: proxySupplier,
		userAgent:     cfg.UserAgent,
		respectRobots: cfg.RespectRobots,
		robots:        make(map[string]*robotstxt.RobotsData),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string, opts FetchOptions) (*RenderedPage, error) {
	if f.respectRobots && !f.allowedByRobots(ctx, pageURL) {
		return nil, &domain.FetchError{URL: pageURL, Err: fmt.Errorf("disallowed by robots.txt")}
	}

	f.rl.Take()

	reqCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	resp, err := f.httpClient.R().
		SetContext(reqCtx).
		Get(pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		f.rotateProxy()
		return nil, &domain.FetchError{URL: pageURL, Err: err}
	}

	if resp.IsError() {
		return nil, &domain.FetchError{URL: pageURL, Err: fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())}
	}

	finalURL := pageURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	log.Debugf("Fetched %s (%d bytes)", pageURL, len(resp.Bytes()))
	return &RenderedPage{URL: finalURL, HTML: resp.String()}, nil
}

func (f *HTTPFetcher) Close() error {
	return f.httpClient.Close()
}

func (f *HTTPFetcher) rotateProxy() {
	if f.proxySupplier == nil {
		return
	}
	if newProxy := f.proxySupplier.Get(); newProxy != "" {
		log.Infof("🔄 Switching to new proxy: %s", newProxy)
		f.httpClient.SetProxy(newProxy)
	}
}

func (f *HTTPFetcher) allowedByRobots(ctx context.Context, pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return true
	}

	f.robotsMutex.Lock()
	data, cached := f.robots[u.Host]
	f.robotsMutex.Unlock()

	if !cached {
		robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
		resp, err := f.httpClient.R().SetContext(ctx).Get(robotsURL)
		if err == nil {
			data, err = robotstxt.FromStatusAndBytes(resp.StatusCode(), resp.Bytes())
		}
		if err != nil {
			log.Warnf("Failed to read %s, allowing all paths: %v", robotsURL, err)
			data = nil
		}

		f.robotsMutex.Lock()
		f.robots[u.Host] = data
		f.robotsMutex.Unlock()
	}

	if data == nil {
		return true
	}
	return data.TestAgent(u.RequestURI(), f.userAgent)
}

func newLimiter(requestsPerSecond int) ratelimit.Limiter {
	if requestsPerSecond <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(requestsPerSecond)
}
