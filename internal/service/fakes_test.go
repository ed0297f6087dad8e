package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"catalog/crawler/internal/client"
	"catalog/crawler/internal/config"
	"catalog/crawler/internal/domain"
	"catalog/crawler/internal/normalize"
)

const siteRoot = "https://shop.example/"

func testSite() config.SiteConfig {
	return config.SiteConfig{
		RootURL:              siteRoot,
		MenuSelectors:        []string{".nav .parentMenu"},
		MenuLinkSelector:     "a",
		MenuNameSelector:     "span",
		ChildBlockSelector:   ".category-sub-menu",
		ChildLinkSelector:    "a",
		ProductCardSelector:  ".item-product",
		ProductNameSelector:  ".product_name",
		ProductImageSelector: "img",
		NextPageSelector:     "a.next",
		DisabledClass:        "disabled",
	}
}

// fakeSite serves canned HTML by URL and fails the URLs listed in failures
type fakeSite struct {
	mutex    sync.Mutex
	pages    map[string]string
	failures map[string]int // remaining failures per URL, <0 fails forever
	calls    []string
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:    make(map[string]string),
		failures: make(map[string]int),
	}
}

func (s *fakeSite) Fetch(ctx context.Context, url string, opts client.FetchOptions) (*client.RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.calls = append(s.calls, url)
	if remaining, ok := s.failures[url]; ok && remaining != 0 {
		s.failures[url] = remaining - 1
		return nil, fmt.Errorf("navigation timeout for %s", url)
	}

	html, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("unexpected url %s", url)
	}
	return &client.RenderedPage{URL: url, HTML: html}, nil
}

func (s *fakeSite) Close() error {
	return nil
}

func (s *fakeSite) Calls() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSite) menu(names ...string) {
	var b strings.Builder
	b.WriteString(`<html><body><div class="nav">`)
	for i := 0; i+1 < len(names); i += 2 {
		fmt.Fprintf(&b, `<div class="parentMenu"><a href="%s"><span>%s</span></a></div>`, names[i+1], names[i])
	}
	b.WriteString(`</div></body></html>`)
	s.pages[siteRoot] = b.String()
}

// branch registers a category page with a child block of name/href pairs
func (s *fakeSite) branch(url string, children ...string) {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="category-sub-menu">`)
	for i := 0; i+1 < len(children); i += 2 {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, children[i+1], children[i])
	}
	b.WriteString(`</ul></body></html>`)
	s.pages[url] = b.String()
}

// leaf registers a category page without child block and its listing pages
func (s *fakeSite) leaf(url string, pages ...[]string) {
	s.pages[url] = `<html><body><div class="products"></div></body></html>`
	for i, products := range pages {
		var b strings.Builder
		b.WriteString(`<html><body><div class="products">`)
		for _, name := range products {
			fmt.Fprintf(&b, `<div class="item-product"><img src="/img/%s.jpg"><span class="product_name">%s</span></div>`,
				strings.ReplaceAll(strings.ToLower(name), " ", "-"), name)
		}
		b.WriteString(`</div>`)
		if i < len(pages)-1 {
			b.WriteString(`<a class="next" href="#">Siguiente</a>`)
		} else {
			b.WriteString(`<a class="next disabled" href="#">Siguiente</a>`)
		}
		b.WriteString(`</body></html>`)
		s.pages[fmt.Sprintf("%s?page=%d", url, i+1)] = b.String()
	}
}

func newTestEngine(site *fakeSite, opts ...Option) (*Engine, *recordingSleeper) {
	parser := client.NewCatalogParser(testSite())
	explorer := NewExplorer(siteRoot, site, parser, normalize.New(), client.FetchOptions{})
	sleeper := &recordingSleeper{}

	engine := NewEngine(explorer, site, parser, append([]Option{
		WithRunID("test-run"),
		WithRetries(0, 0),
	}, opts...)...)
	engine.sleep = sleeper.Sleep
	return engine, sleeper
}

type recordingSleeper struct {
	mutex  sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

type recordingCheckpointer struct {
	maybe     []int
	completed []int
}

func (c *recordingCheckpointer) MaybeCheckpoint(ctx context.Context, records []domain.ProductRecord) {
	c.maybe = append(c.maybe, len(records))
}

func (c *recordingCheckpointer) CategoryCompleted(ctx context.Context, records []domain.ProductRecord) {
	c.completed = append(c.completed, len(records))
}

type recordingListener struct {
	pages  []string
	failed []string
}

func (l *recordingListener) PageExtracted(ctx context.Context, category domain.Category, pageNumber int, records []domain.ProductRecord) {
	l.pages = append(l.pages, fmt.Sprintf("%s#%d:%d", category.NormalizedPath, pageNumber, len(records)))
}

func (l *recordingListener) CategoryFailed(ctx context.Context, category domain.Category, err error) {
	l.failed = append(l.failed, category.NormalizedPath)
}
