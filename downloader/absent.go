package downloader

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// AbsentCache remembers URLs that answered 404 during this run.
// A nil cache is valid and remembers nothing.
type AbsentCache struct {
	urls *lru.Cache[string, struct{}]
}

// NewAbsentCache returns a cache holding up to size URLs, or nil when size is 0.
func NewAbsentCache(size int) (*AbsentCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create absent cache: %w", err)
	}
	return &AbsentCache{urls: c}, nil
}

// Contains reports whether url was confirmed absent.
func (c *AbsentCache) Contains(url string) bool {
	if c == nil {
		return false
	}
	return c.urls.Contains(url)
}

// Add marks url as confirmed absent.
func (c *AbsentCache) Add(url string) {
	if c == nil {
		return
	}
	c.urls.Add(url, struct{}{})
}

// Len returns the number of remembered URLs.
func (c *AbsentCache) Len() int {
	if c == nil {
		return 0
	}
	return c.urls.Len()
}
