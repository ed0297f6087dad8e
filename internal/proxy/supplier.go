package proxy

import (
	"context"
	"crypto/tls"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const maxParallelChecks = 50

// ProxySupplier manages a pool of proxies with round-robin selection
type ProxySupplier interface {
	Get() string
	Len() int
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewProxySupplier keeps the proxies that can reach testURL. Duplicates are
// checked once and the configured order is preserved.
func NewProxySupplier(ctx context.Context, proxies []string, testURL string) (ProxySupplier, error) {
	if len(proxies) == 0 {
		return &proxySupplier{}, nil
	}

	candidates := slices.Compact(slices.Clone(proxies))
	working := make([]bool, len(candidates))

	log.Infof("🔄 Testing %d proxies against %s...", len(candidates), testURL)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)
	for i, proxyURL := range candidates {
		g.Go(func() error {
			working[i] = isProxyValid(gctx, proxyURL, testURL)
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]string, 0, len(candidates))
	for i, ok := range working {
		if ok {
			valid = append(valid, candidates[i])
		}
	}

	log.Infof("✅ Proxy pool ready with %d working proxies out of %d", len(valid), len(candidates))
	return &proxySupplier{proxies: valid}, nil
}

// Get returns the next proxy URL in round-robin fashion, or "" for a direct connection
func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)

	return proxy
}

func (p *proxySupplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func isProxyValid(ctx context.Context, proxyURL, testURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(testURL)
	if err != nil {
		log.Debugf("Proxy %s failed: %v", proxyURL, err)
		return false
	}

	if resp.IsError() {
		log.Debugf("Proxy %s failed with status: %s", proxyURL, resp.Status())
		return false
	}

	return true
}
