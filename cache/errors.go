package cache

import "errors"

// ErrNotCached is returned when no usable entry exists for an accession.
// Corrupt or unreadable entries are reported the same way so callers fall
// through to the next data source instead of failing.
var ErrNotCached = errors.New("not cached")

// BadAccessionError reports an accession that cannot be mapped to a cache
// path.
type BadAccessionError struct {
	Accession string
}

func (e *BadAccessionError) Error() string {
	return "invalid accession format: " + e.Accession
}
