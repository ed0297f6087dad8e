package service

import (
	"context"
	"errors"
	"fmt"

	"catalog/crawler/internal/client"
	"catalog/crawler/internal/domain"
	"catalog/crawler/internal/normalize"

	log "github.com/sirupsen/logrus"
)

// CategoryExplorer discovers the category tree
type CategoryExplorer interface {
	DiscoverRoots(ctx context.Context) ([]domain.Category, error)
	// DiscoverChildren returns nil for a leaf category and a non-nil slice for a branch
	DiscoverChildren(ctx context.Context, category domain.Category) ([]domain.Category, error)
}

type explorer struct {
	rootURL    string
	fetcher    client.PageFetcher
	parser     client.CategoryParser
	normalizer *normalize.Normalizer
	fetchOpts  client.FetchOptions
}

// NewExplorer creates a CategoryExplorer. Every call navigates the shared fetcher,
// so it must not be used concurrently unless the fetcher supports it.
func NewExplorer(
	rootURL string,
	fetcher client.PageFetcher,
	parser client.CategoryParser,
	normalizer *normalize.Normalizer,
	fetchOpts client.FetchOptions,
) CategoryExplorer {
	return &explorer{
		rootURL:    rootURL,
		fetcher:    fetcher,
		parser:     parser,
		normalizer: normalizer,
		fetchOpts:  fetchOpts,
	}
}

func (e *explorer) DiscoverRoots(ctx context.Context) ([]domain.Category, error) {
	page, err := e.fetcher.Fetch(ctx, e.rootURL, e.fetchOpts)
	if err != nil {
		return nil, asFetchError(e.rootURL, err)
	}

	links, err := e.parser.ParseRoots(page)
	if err != nil {
		return nil, asExtractionError(e.rootURL, err)
	}

	seen := make(map[string]struct{}, len(links))
	roots := make([]domain.Category, 0, len(links))
	for _, link := range links {
		key := canonicalURL(link.URL)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		roots = append(roots, domain.Category{
			Name:           link.Name,
			NormalizedPath: e.normalizer.Label(link.Name),
			URL:            link.URL,
			Depth:          0,
		})
	}

	log.Infof("📂 Root categories found: %d", len(roots))
	return roots, nil
}

func (e *explorer) DiscoverChildren(ctx context.Context, category domain.Category) ([]domain.Category, error) {
	page, err := e.fetcher.Fetch(ctx, category.URL, e.fetchOpts)
	if err != nil {
		return nil, asFetchError(category.URL, err)
	}

	links, found, err := e.parser.ParseChildren(page)
	if err != nil {
		return nil, asExtractionError(category.URL, err)
	}
	if !found {
		return nil, nil
	}

	children := make([]domain.Category, 0, len(links))
	for _, link := range links {
		children = append(children, domain.Category{
			Name:           link.Name,
			NormalizedPath: e.normalizer.Join(category.NormalizedPath, link.Name),
			URL:            link.URL,
			Depth:          category.Depth + 1,
		})
	}
	return children, nil
}

func asFetchError(url string, err error) error {
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	return &domain.FetchError{URL: url, Err: err}
}

func asExtractionError(url string, err error) error {
	var extractionErr *domain.ExtractionError
	if errors.As(err, &extractionErr) {
		return err
	}
	return &domain.ExtractionError{URL: url, Err: fmt.Errorf("failed to parse categories: %w", err)}
}
