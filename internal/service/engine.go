package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"catalog/crawler/internal/client"
	"catalog/crawler/internal/domain"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Checkpointer receives the accumulated records while a crawl is running.
// Implementations handle their own failures; the crawl never stops on them.
type Checkpointer interface {
	MaybeCheckpoint(ctx context.Context, records []domain.ProductRecord)
	CategoryCompleted(ctx context.Context, records []domain.ProductRecord)
}

// Listener observes crawl progress
type Listener interface {
	PageExtracted(ctx context.Context, category domain.Category, pageNumber int, records []domain.ProductRecord)
	CategoryFailed(ctx context.Context, category domain.Category, err error)
}

// Engine walks the category tree breadth-first with a single fetcher session:
// branches enqueue their children, leaves are paginated until the site stops
// reporting a next page.
type Engine struct {
	explorer     CategoryExplorer
	fetcher      client.PageFetcher
	extractor    client.ListingExtractor
	checkpointer Checkpointer
	listener     Listener

	runID          string
	interPageDelay time.Duration
	fetchOpts      client.FetchOptions
	maxRetries     int
	retryBackoff   time.Duration
	pageParam      string

	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Engine)

func WithCheckpointer(c Checkpointer) Option {
	return func(e *Engine) {
		if c != nil {
			e.checkpointer = c
		}
	}
}

func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listener = l
		}
	}
}

func WithRunID(runID string) Option {
	return func(e *Engine) {
		e.runID = runID
	}
}

// WithInterPageDelay sets the pause between consecutive listing pages
func WithInterPageDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.interPageDelay = max(d, 0)
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.fetchOpts.Timeout = d
	}
}

// WithRetries sets how many extra attempts a failed fetch gets; attempt n waits n*backoff first
func WithRetries(maxRetries int, backoff time.Duration) Option {
	return func(e *Engine) {
		e.maxRetries = max(maxRetries, 0)
		e.retryBackoff = max(backoff, 0)
	}
}

// WithPageParam sets the query parameter carrying the listing page number
func WithPageParam(param string) Option {
	return func(e *Engine) {
		if param != "" {
			e.pageParam = param
		}
	}
}

func NewEngine(
	explorer CategoryExplorer,
	fetcher client.PageFetcher,
	extractor client.ListingExtractor,
	opts ...Option,
) *Engine {
	e := &Engine{
		explorer:       explorer,
		fetcher:        fetcher,
		extractor:      extractor,
		checkpointer:   noopCheckpointer{},
		listener:       noopListener{},
		interPageDelay: 2 * time.Second,
		fetchOpts:      client.FetchOptions{Wait: client.WaitNetworkIdle, Timeout: 30 * time.Second},
		maxRetries:     1,
		retryBackoff:   time.Second,
		pageParam:      "page",
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}
	return e
}

// Crawl runs the traversal until the work queue is empty. Per-category failures
// are recorded in the result; only root discovery failure or cancellation
// return an error. On cancellation the partial result is returned alongside ctx.Err().
func (e *Engine) Crawl(ctx context.Context) (*domain.CrawlResult, error) {
	results := newCollector(e.runID)
	logger := log.WithField("run_id", e.runID)

	roots, err := retry(ctx, e, "discover roots", func() ([]domain.Category, error) {
		return e.explorer.DiscoverRoots(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover root categories: %w", err)
	}

	queue := newFrontier()
	for _, root := range roots {
		if queue.Push(root) {
			results.transition(root, domain.CategoryPending)
		}
	}
	logger.Infof("🚀 Crawl started with %d root categories", queue.Len())

	for {
		category, ok := queue.Pop()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			logger.Warnf("🛑 Crawl interrupted with %d unfinished categories", results.unfinished())
			return results.finish(queue.Visited()), err
		}
		e.visit(ctx, category, queue, results)
	}

	result := results.finish(queue.Visited())
	logger.WithFields(log.Fields{
		"records":  len(result.Records),
		"visited":  result.Visited,
		"leaves":   result.Leaves,
		"failures": len(result.Failures),
		"status":   result.Status(),
	}).Info("✅ Crawl finished")

	return result, ctx.Err()
}

func (e *Engine) visit(ctx context.Context, category domain.Category, queue *frontier, results *collector) {
	logger := log.WithFields(log.Fields{
		"run_id":   e.runID,
		"category": category.NormalizedPath,
		"url":      category.URL,
	})

	results.transition(category, domain.CategoryExploring)
	children, err := retry(ctx, e, "explore "+category.URL, func() ([]domain.Category, error) {
		return e.explorer.DiscoverChildren(ctx, category)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Errorf("❌ Failed to explore category, skipping its subtree: %v", err)
		e.fail(ctx, category, err, results)
		return
	}

	if children != nil {
		results.transition(category, domain.CategoryBranching)
		enqueued := 0
		for _, child := range children {
			if queue.Push(child) {
				results.transition(child, domain.CategoryPending)
				enqueued++
				continue
			}
			logger.Debugf("Skipping already visited category %s", child.URL)
		}
		results.branches++
		results.transition(category, domain.CategoryDone)
		logger.Infof("🌿 Branch with %d subcategories (%d new)", len(children), enqueued)
		return
	}

	results.transition(category, domain.CategoryLeafPaginating)
	logger.Info("🔄 Processing leaf category")
	if !e.paginate(ctx, category, results, logger) {
		return
	}
	results.leaves++
	results.transition(category, domain.CategoryDone)
	e.checkpointer.CategoryCompleted(ctx, results.records)
}

// paginate walks page 1, 2, ... of a leaf. It reports false when the category failed
// or the crawl was cancelled before its pagination finished.
func (e *Engine) paginate(ctx context.Context, category domain.Category, results *collector, logger *log.Entry) bool {
	for pageNumber := 1; ; pageNumber++ {
		pageURL, err := listingURL(category.URL, e.pageParam, pageNumber)
		if err != nil {
			e.fail(ctx, category, err, results)
			return false
		}

		listing, err := retry(ctx, e, "fetch "+pageURL, func() (*domain.ListingPage, error) {
			page, err := e.fetcher.Fetch(ctx, pageURL, e.fetchOpts)
			if err != nil {
				return nil, asFetchError(pageURL, err)
			}
			listing, err := e.extractor.ExtractListing(page, category.NormalizedPath)
			if err != nil {
				var extractionErr *domain.ExtractionError
				if errors.As(err, &extractionErr) {
					return nil, err
				}
				return nil, &domain.ExtractionError{URL: pageURL, Err: err}
			}
			return listing, nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			if pageNumber == 1 {
				logger.Errorf("❌ Failed to load first listing page: %v", err)
				e.fail(ctx, category, err, results)
				return false
			}
			results.pageErrors++
			logger.Warnf("⚠️ Page %d failed, treating it as the end of the listing: %v", pageNumber, err)
			return true
		}

		records := validRecords(listing.Records, category.NormalizedPath)
		if len(records) > 0 {
			results.add(records)
			logger.Infof("Found %d products on page %d", len(records), pageNumber)
			e.listener.PageExtracted(ctx, category, pageNumber, records)
			e.checkpointer.MaybeCheckpoint(ctx, results.records)
		}

		if !listing.HasNextPage {
			return true
		}

		if err := e.sleep(ctx, e.interPageDelay); err != nil {
			return false
		}
	}
}

func (e *Engine) fail(ctx context.Context, category domain.Category, err error, results *collector) {
	results.fail(category, err)
	e.listener.CategoryFailed(ctx, category, err)
}

// validRecords drops records with neither name nor image and pins the category path
func validRecords(records []domain.ProductRecord, categoryPath string) []domain.ProductRecord {
	valid := make([]domain.ProductRecord, 0, len(records))
	for _, record := range records {
		if !record.Valid() {
			continue
		}
		record.CategoryPath = categoryPath
		valid = append(valid, record)
	}
	return valid
}

// listingURL sets the page query parameter, keeping any existing query
func listingURL(categoryURL, param string, pageNumber int) (string, error) {
	u, err := url.Parse(categoryURL)
	if err != nil {
		return "", &domain.FetchError{URL: categoryURL, Err: fmt.Errorf("invalid category URL: %w", err)}
	}
	query := u.Query()
	query.Set(param, strconv.Itoa(pageNumber))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func retry[T any](ctx context.Context, e *Engine, op string, fn func() (T, error)) (T, error) {
	var (
		value T
		err   error
	)
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			log.Debugf("Retrying %s (attempt %d/%d): %v", op, attempt, e.maxRetries, err)
			if sleepErr := e.sleep(ctx, time.Duration(attempt)*e.retryBackoff); sleepErr != nil {
				return value, sleepErr
			}
		}
		value, err = fn()
		if err == nil || ctx.Err() != nil {
			return value, err
		}
	}
	return value, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type noopCheckpointer struct{}

func (noopCheckpointer) MaybeCheckpoint(context.Context, []domain.ProductRecord)   {}
func (noopCheckpointer) CategoryCompleted(context.Context, []domain.ProductRecord) {}

type noopListener struct{}

func (noopListener) PageExtracted(context.Context, domain.Category, int, []domain.ProductRecord) {}
func (noopListener) CategoryFailed(context.Context, domain.Category, error)                      {}
