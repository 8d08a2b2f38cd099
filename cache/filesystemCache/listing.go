package filesystemCache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"encode-portal/cache"
)

// SaveListing writes the bulk experiment listing document.
func (c *Cache) SaveListing(doc []byte) error {
	//nolint:mnd // filemode constant
	if err := os.WriteFile(c.listingPath(), doc, 0o644); err != nil {
		return fmt.Errorf("failed to write listing cache: %w", err)
	}

	return nil
}

// LoadListing returns the cached bulk listing document. Missing and corrupt
// files read as cache.ErrNotCached.
func (c *Cache) LoadListing() ([]byte, error) {
	//nolint:gosec // G304: path is fixed under the cache root
	doc, err := os.ReadFile(c.listingPath())
	if err != nil {
		return nil, cache.ErrNotCached
	}
	if !json.Valid(doc) {
		return nil, cache.ErrNotCached
	}

	return doc, nil
}

// ClearListing removes the bulk listing cache file. A missing file reads as
// cache.ErrNotCached.
func (c *Cache) ClearListing() error {
	if err := os.Remove(c.listingPath()); err != nil {
		if os.IsNotExist(err) {
			return cache.ErrNotCached
		}
		return fmt.Errorf("failed to remove listing cache: %w", err)
	}

	return nil
}

func (c *Cache) listingPath() string {
	return filepath.Join(c.root, listingFile)
}
