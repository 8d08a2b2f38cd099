package filesystemCache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"encode-portal/cache"
)

const (
	metadataDir = "metadata"
	listingFile = "experiments.json"
	entrySuffix = ".json"
)

// Cache implements the metadata and listing store interfaces using plain
// files. Per-accession documents live under
// {root}/metadata/{bucket}/{accession}.json and the bulk listing at
// {root}/experiments.json.
type Cache struct {
	root string
}

// New creates a filesystem-backed cache rooted at the given directory.
func New(root string) (*Cache, error) {
	//nolint:gosec,mnd // Directory permissions 0755 are intentional
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache root: %w", err)
	}

	return &Cache{root: root}, nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Put writes a document to its hierarchical path, creating parent
// directories as needed.
func (c *Cache) Put(accession string, doc []byte) error {
	entryPath, err := c.entryPath(accession)
	if err != nil {
		return err
	}

	//nolint:gosec,mnd // Directory permissions 0755 are intentional
	if err := os.MkdirAll(filepath.Dir(entryPath), 0o755); err != nil {
		return fmt.Errorf("failed to create bucket directory: %w", err)
	}
	//nolint:mnd // filemode constant
	if err := os.WriteFile(entryPath, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// Get returns the cached document for an accession. Missing, unreadable,
// and corrupt entries all read as cache.ErrNotCached.
func (c *Cache) Get(accession string) ([]byte, error) {
	entryPath, err := c.entryPath(accession)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G304: path is derived from the validated accession
	doc, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, cache.ErrNotCached
	}
	if !json.Valid(doc) {
		return nil, cache.ErrNotCached
	}

	return doc, nil
}

// Delete removes one cache entry. A missing entry reads as
// cache.ErrNotCached.
func (c *Cache) Delete(accession string) error {
	entryPath, err := c.entryPath(accession)
	if err != nil {
		return err
	}

	if err := os.Remove(entryPath); err != nil {
		if os.IsNotExist(err) {
			return cache.ErrNotCached
		}
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}

	return nil
}

// DeleteAll removes the entire metadata hierarchy.
func (c *Cache) DeleteAll() error {
	if err := os.RemoveAll(filepath.Join(c.root, metadataDir)); err != nil {
		return fmt.Errorf("failed to remove metadata cache: %w", err)
	}

	return nil
}

// Stats walks the metadata hierarchy and reports entry counts and sizes.
// Empty or partially populated bucket directories are fine.
func (c *Cache) Stats() (cache.Stats, error) {
	stats := cache.Stats{Buckets: map[string]int{}}

	buckets, err := os.ReadDir(filepath.Join(c.root, metadataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("failed to read metadata cache: %w", err)
	}

	for _, bucket := range buckets {
		if !bucket.IsDir() {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(c.root, metadataDir, bucket.Name()))
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), entrySuffix) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				continue
			}

			stats.Entries++
			stats.TotalBytes += info.Size()
			stats.Buckets[bucket.Name()]++
		}
	}

	return stats, nil
}

// entryPath returns the file path for an accession's cache entry.
func (c *Cache) entryPath(accession string) (string, error) {
	bucket, err := cache.Bucket(accession)
	if err != nil {
		return "", err
	}

	return filepath.Join(c.root, metadataDir, bucket, accession+entrySuffix), nil
}
