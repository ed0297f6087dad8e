package service

import (
	"net/url"
	"strings"
	"sync"

	"catalog/crawler/internal/domain"
)

// frontier is the FIFO work queue together with the visited set.
// A URL is marked visited when it is enqueued, so two parents sharing a
// child cannot enqueue it twice.
type frontier struct {
	mutex   sync.Mutex
	queue   []domain.Category
	visited map[string]struct{}
}

func newFrontier() *frontier {
	return &frontier{
		visited: make(map[string]struct{}),
	}
}

// Push enqueues category unless its URL was seen before. It reports whether the category was enqueued.
func (f *frontier) Push(category domain.Category) bool {
	key := canonicalURL(category.URL)
	if key == "" {
		return false
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if _, seen := f.visited[key]; seen {
		return false
	}
	f.visited[key] = struct{}{}
	f.queue = append(f.queue, category)
	return true
}

// Pop dequeues the oldest category
func (f *frontier) Pop() (domain.Category, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if len(f.queue) == 0 {
		return domain.Category{}, false
	}

	category := f.queue[0]
	f.queue[0] = domain.Category{}
	f.queue = f.queue[1:]
	return category, true
}

func (f *frontier) Len() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.queue)
}

func (f *frontier) Visited() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.visited)
}

// canonicalURL lowercases scheme and host, drops the fragment and a trailing slash
func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}
