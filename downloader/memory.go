package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Caches fetched documents in memory. Also doubles as a stub for
// tests: seeded URLs are served without touching the network.
type MemoryDownloader struct {
	mutex  sync.Mutex
	cache  map[string]cacheEntry
	seeded map[string][]byte

	TimeNow func() time.Time
}

func NewMemoryDownloader() *MemoryDownloader {
	return &MemoryDownloader{
		cache:   make(map[string]cacheEntry),
		seeded:  make(map[string][]byte),
		TimeNow: time.Now,
	}
}

type cacheEntry struct {
	data       []byte
	expiration time.Time
}

// Seed pins a response for a URL. Fetch serves it directly, and any
// unseeded URL becomes an error, so a seeded downloader never makes
// network calls.
func (d *MemoryDownloader) Seed(url string, data []byte) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.seeded[url] = data
}

func (d *MemoryDownloader) Fetch(
	ctx context.Context,
	url string,
	headers map[string]string,
	options FetchOptions,
) ([]byte, error) {
	d.mutex.Lock()
	if len(d.seeded) > 0 {
		data, ok := d.seeded[url]
		d.mutex.Unlock()
		if !ok {
			return nil, fmt.Errorf("no seeded response for %s", url)
		}
		return data, nil
	}

	if options.Cache {
		if entry, ok := d.cache[url]; ok && entry.expiration.After(d.TimeNow()) {
			d.mutex.Unlock()
			return entry.data, nil
		}
	}
	d.mutex.Unlock()

	body, err := HTTPFetch(ctx, url, headers, options)
	if err != nil {
		return nil, err
	}

	if options.Cache {
		d.mutex.Lock()
		d.cache[url] = cacheEntry{
			data:       body,
			expiration: d.TimeNow().Add(options.CacheTTL),
		}
		d.mutex.Unlock()
	}

	return body, nil
}
