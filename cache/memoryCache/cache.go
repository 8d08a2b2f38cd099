package memoryCache

import (
	"sync"

	"encode-portal/cache"
)

// Cache implements the metadata and listing store interfaces with in-memory
// maps. Used only for testing.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	listing []byte
}

// New creates an empty memory-backed cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string][]byte),
	}
}

// Put stores a copy of the document keyed by accession.
func (c *Cache) Put(accession string, doc []byte) error {
	if _, err := cache.Bucket(accession); err != nil {
		return err
	}

	stored := make([]byte, len(doc))
	copy(stored, doc)

	c.mu.Lock()
	c.entries[accession] = stored
	c.mu.Unlock()

	return nil
}

// Get returns a copy of the cached document for an accession.
func (c *Cache) Get(accession string) ([]byte, error) {
	if _, err := cache.Bucket(accession); err != nil {
		return nil, err
	}

	c.mu.RLock()
	doc, exists := c.entries[accession]
	c.mu.RUnlock()

	if !exists {
		return nil, cache.ErrNotCached
	}

	// Return a copy to prevent external modifications
	result := make([]byte, len(doc))
	copy(result, doc)

	return result, nil
}

// Delete removes one cache entry.
func (c *Cache) Delete(accession string) error {
	if _, err := cache.Bucket(accession); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[accession]; !exists {
		return cache.ErrNotCached
	}

	delete(c.entries, accession)

	return nil
}

// DeleteAll removes every cache entry.
func (c *Cache) DeleteAll() error {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.mu.Unlock()

	return nil
}

// Stats reports entry counts and sizes grouped by bucket.
func (c *Cache) Stats() (cache.Stats, error) {
	stats := cache.Stats{Buckets: map[string]int{}}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for accession, doc := range c.entries {
		bucket, err := cache.Bucket(accession)
		if err != nil {
			continue
		}

		stats.Entries++
		stats.TotalBytes += int64(len(doc))
		stats.Buckets[bucket]++
	}

	return stats, nil
}

// SaveListing stores a copy of the bulk listing document.
func (c *Cache) SaveListing(doc []byte) error {
	stored := make([]byte, len(doc))
	copy(stored, doc)

	c.mu.Lock()
	c.listing = stored
	c.mu.Unlock()

	return nil
}

// LoadListing returns a copy of the stored bulk listing document.
func (c *Cache) LoadListing() ([]byte, error) {
	c.mu.RLock()
	doc := c.listing
	c.mu.RUnlock()

	if doc == nil {
		return nil, cache.ErrNotCached
	}

	result := make([]byte, len(doc))
	copy(result, doc)

	return result, nil
}

// ClearListing drops the stored bulk listing document.
func (c *Cache) ClearListing() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listing == nil {
		return cache.ErrNotCached
	}

	c.listing = nil

	return nil
}

// Count returns the number of entries stored (useful for testing)
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
