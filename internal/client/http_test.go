package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog/crawler/internal/config"
	"catalog/crawler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPFetcher(respectRobots bool) *HTTPFetcher {
	return NewHTTPFetcher(config.FetcherConfig{
		UserAgent:     "catalog-crawler-test",
		MaxRetries:    0,
		RespectRobots: respectRobots,
	}, nil)
}

func TestHTTPFetcherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/perros":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>perros</body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	fetcher := newTestHTTPFetcher(false)
	defer fetcher.Close()

	page, err := fetcher.Fetch(context.Background(), server.URL+"/perros?page=2", FetchOptions{Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "perros")
	assert.Equal(t, server.URL+"/perros?page=2", page.URL)

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing", FetchOptions{Timeout: 5 * time.Second})
	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, server.URL+"/missing", fetchErr.URL)
}

func TestHTTPFetcherRespectsRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		default:
			_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
		}
	}))
	defer server.Close()

	fetcher := newTestHTTPFetcher(true)
	defer fetcher.Close()

	_, err := fetcher.Fetch(context.Background(), server.URL+"/public/perros", FetchOptions{Timeout: 5 * time.Second})
	assert.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), server.URL+"/private/gatos", FetchOptions{Timeout: 5 * time.Second})
	var fetchErr *domain.FetchError
	assert.True(t, errors.As(err, &fetchErr))
}
