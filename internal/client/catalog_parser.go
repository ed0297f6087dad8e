package client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"catalog/crawler/internal/config"
	"catalog/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// ListingExtractor turns a rendered listing page into product records
type ListingExtractor interface {
	ExtractListing(page *RenderedPage, categoryPath string) (*domain.ListingPage, error)
}

// CategoryParser reads category links from navigation and category pages
type CategoryParser interface {
	ParseRoots(page *RenderedPage) ([]domain.CategoryLink, error)
	// ParseChildren reports found=false when the page has no child-category block
	ParseChildren(page *RenderedPage) (links []domain.CategoryLink, found bool, err error)
}

// CatalogParser implements both ListingExtractor and CategoryParser with CSS selectors
type CatalogParser struct {
	site config.SiteConfig
}

func NewCatalogParser(site config.SiteConfig) *CatalogParser {
	return &CatalogParser{site: site}
}

func (p *CatalogParser) ParseRoots(page *RenderedPage) ([]domain.CategoryLink, error) {
	doc, err := p.document(page)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	links := make([]domain.CategoryLink, 0)

	for _, selector := range p.site.MenuSelectors {
		doc.Find(selector).Each(func(i int, parent *goquery.Selection) {
			link := parent.Find(p.site.MenuLinkSelector).First()
			name := parent.Find(p.site.MenuNameSelector).First()
			if link.Length() == 0 || name.Length() == 0 {
				return
			}

			href, ok := resolveHref(page.URL, link)
			if !ok {
				return
			}
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}

			links = append(links, domain.CategoryLink{
				Name: strings.TrimSpace(name.Text()),
				URL:  href,
			})
		})
	}

	log.Debugf("Found %d root categories on %s", len(links), page.URL)
	return links, nil
}

func (p *CatalogParser) ParseChildren(page *RenderedPage) ([]domain.CategoryLink, bool, error) {
	doc, err := p.document(page)
	if err != nil {
		return nil, false, err
	}

	block := doc.Find(p.site.ChildBlockSelector)
	if block.Length() == 0 {
		return nil, false, nil
	}

	links := make([]domain.CategoryLink, 0)
	block.Find(p.site.ChildLinkSelector).Each(func(i int, link *goquery.Selection) {
		href, ok := resolveHref(page.URL, link)
		if !ok {
			return
		}
		links = append(links, domain.CategoryLink{
			Name: strings.TrimSpace(link.Text()),
			URL:  href,
		})
	})

	return links, true, nil
}

func (p *CatalogParser) ExtractListing(page *RenderedPage, categoryPath string) (*domain.ListingPage, error) {
	doc, err := p.document(page)
	if err != nil {
		return nil, err
	}

	listing := &domain.ListingPage{
		Records: make([]domain.ProductRecord, 0),
	}

	doc.Find(p.site.ProductCardSelector).Each(func(i int, card *goquery.Selection) {
		img := card.Find(p.site.ProductImageSelector).First()
		name := card.Find(p.site.ProductNameSelector).First()
		if img.Length() == 0 && name.Length() == 0 {
			return
		}

		var imageURL string
		if img.Length() > 0 {
			imageURL = imageSource(page.URL, img)
		}

		record := domain.NewProductRecord(strings.TrimSpace(name.Text()), imageURL, categoryPath)
		if record.Valid() {
			listing.Records = append(listing.Records, record)
		}
	})

	if p.site.NextPageSelector != "" {
		next := doc.Find(p.site.NextPageSelector).First()
		listing.HasNextPage = next.Length() > 0 && !next.HasClass(p.site.DisabledClass)
	}

	log.Debugf("Extracted %d products from %s (next page: %t)", len(listing.Records), page.URL, listing.HasNextPage)
	return listing, nil
}

func (p *CatalogParser) document(page *RenderedPage) (*goquery.Document, error) {
	if page == nil {
		return nil, &domain.ExtractionError{Err: errors.New("nil page")}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, &domain.ExtractionError{URL: page.URL, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}
	return doc, nil
}

func resolveHref(base string, link *goquery.Selection) (string, bool) {
	href, exists := link.Attr("href")
	href = strings.TrimSpace(href)
	if !exists || href == "" || href == "#" || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	return absoluteURL(base, href), true
}

func imageSource(base string, img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src"} {
		if src, ok := img.Attr(attr); ok && strings.TrimSpace(src) != "" {
			return absoluteURL(base, strings.TrimSpace(src))
		}
	}
	return ""
}

func absoluteURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
