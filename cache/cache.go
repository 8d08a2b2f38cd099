package cache

// Store is implemented by each metadata cache backend. It persists one raw
// JSON document per accession in a bucketed hierarchy derived from the
// accession string.
//
// Backends do not lock their underlying storage: concurrent processes racing
// on the same cache may observe a torn write or clobber each other. That is
// an accepted limitation of the cache, not a guarantee callers may rely on.
type Store interface {
	Put(accession string, doc []byte) error
	Get(accession string) ([]byte, error)
	Delete(accession string) error
	DeleteAll() error
	Stats() (Stats, error)
}

// ListingStore persists the bulk experiment listing as a single document,
// separate from the per-accession hierarchy.
type ListingStore interface {
	SaveListing(doc []byte) error
	LoadListing() ([]byte, error)
	ClearListing() error
}

// Stats describes the contents of a metadata store.
type Stats struct {
	Entries    int            `json:"entries"`
	TotalBytes int64          `json:"total_bytes"`
	Buckets    map[string]int `json:"buckets"`
}

// Bucket returns the hierarchy bucket for an accession: characters four and
// five of the identifier (e.g. "SR" for "ENCSR000CDC"). It is a pure
// function of the accession and fails fast on identifiers too short to
// bucket, before any storage access.
func Bucket(accession string) (string, error) {
	if len(accession) < 5 {
		return "", &BadAccessionError{Accession: accession}
	}
	return accession[3:5], nil
}
