package encode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"encode-portal/cache"
	"encode-portal/portal"
)

// Source is the remote metadata source consumed by the engine. It is
// satisfied by portal.Client; tests substitute a local fake.
type Source interface {
	Experiment(accession string, embedded bool) (map[string]any, error)
	Listing() ([]map[string]any, error)
	OpenFile(href string) (io.ReadCloser, error)
	FileURL(href string) string
	ExperimentURL(accession string) string
}

// listingEnvelope is the on-disk shape of the bulk listing cache.
type listingEnvelope struct {
	Experiments []map[string]any `json:"experiments"`
}

// Engine ties the remote source and the two cache tiers together. It is
// constructed explicitly and passed to callers; there is no shared global
// instance. Call paths are synchronous and single-threaded.
type Engine struct {
	source  Source
	store   cache.Store
	listing cache.ListingStore

	experiments []map[string]any
	loaded      bool
}

// NewEngine creates an engine over the given source and cache backends. The
// bulk listing is not loaded until first use.
func NewEngine(source Source, store cache.Store, listing cache.ListingStore) *Engine {
	return &Engine{
		source:  source,
		store:   store,
		listing: listing,
	}
}

// Experiments returns the bulk experiment listing, loading it lazily from
// the listing cache and falling back to the portal on a miss. The fetched
// listing is written back to the cache best-effort.
func (e *Engine) Experiments() ([]map[string]any, error) {
	if e.loaded {
		return e.experiments, nil
	}

	if doc, err := e.listing.LoadListing(); err == nil {
		var envelope listingEnvelope
		if err := json.Unmarshal(doc, &envelope); err == nil {
			log.Debug().
				Int("experiments", len(envelope.Experiments)).
				Msg("loaded experiment listing from cache")
			e.experiments = envelope.Experiments
			e.loaded = true
			return e.experiments, nil
		}
		log.Warn().Msg("listing cache is malformed, refetching from portal")
	}

	return e.RefreshExperiments()
}

// RefreshExperiments fetches the listing from the portal unconditionally,
// replacing both the in-memory copy and the listing cache.
func (e *Engine) RefreshExperiments() ([]map[string]any, error) {
	experiments, err := e.source.Listing()
	if err != nil {
		return nil, err
	}

	e.experiments = experiments
	e.loaded = true

	doc, err := json.Marshal(listingEnvelope{Experiments: experiments})
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode listing for cache")
		return e.experiments, nil
	}
	if err := e.listing.SaveListing(doc); err != nil {
		log.Warn().Err(err).Msg("failed to write listing cache")
	}

	return e.experiments, nil
}

// Experiment hydrates one experiment record. Resolution order: hierarchical
// metadata cache, then the bulk listing with an opportunistic write-back,
// then the portal.
func (e *Engine) Experiment(accession string) (*ExperimentRecord, error) {
	if accession == "" {
		return nil, &ValidationError{Reason: "accession is required"}
	}

	if doc, err := e.store.Get(accession); err == nil {
		raw := map[string]any{}
		if err := json.Unmarshal(doc, &raw); err == nil {
			log.Debug().Str("accession", accession).Msg("experiment loaded from metadata cache")
			return newRecord(e, raw, accession, nil), nil
		}
	}

	experiments, err := e.Experiments()
	if err != nil {
		log.Warn().Err(err).Msg("bulk listing unavailable, falling back to portal")
	}
	for _, raw := range experiments {
		if match, ok := raw["accession"].(string); ok && match == accession {
			warnings := e.putRecord(accession, raw)
			log.Debug().Str("accession", accession).Msg("experiment matched in bulk listing")
			return newRecord(e, raw, accession, warnings), nil
		}
	}

	raw, err := e.source.Experiment(accession, false)
	if err != nil {
		var notFound *portal.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &NotFoundError{Accession: accession, Inner: err}
		}
		return nil, err
	}

	warnings := e.putRecord(accession, raw)
	return newRecord(e, raw, accession, warnings), nil
}

// ExperimentFromRaw builds a record from a pre-fetched raw document, for
// callers that already hold listing entries and want to avoid a refetch.
func (e *Engine) ExperimentFromRaw(raw map[string]any) (*ExperimentRecord, error) {
	if raw == nil {
		return nil, &ValidationError{Reason: "either an accession or a raw document is required"}
	}

	accession, _ := raw["accession"].(string)
	return newRecord(e, raw, accession, nil), nil
}

// CacheStats reports the contents of the hierarchical metadata store.
func (e *Engine) CacheStats() (cache.Stats, error) {
	return e.store.Stats()
}

// ClearListingCache drops the cached bulk listing and the in-memory copy.
// Clearing an already-empty cache is not an error.
func (e *Engine) ClearListingCache() error {
	e.experiments = nil
	e.loaded = false

	if err := e.listing.ClearListing(); err != nil {
		if errors.Is(err, cache.ErrNotCached) {
			return nil
		}
		return err
	}

	log.Info().Msg("listing cache cleared")
	return nil
}

// ClearMetadataCache removes one accession's cache entry, or the whole
// hierarchical store when accession is empty. Missing entries are fine.
func (e *Engine) ClearMetadataCache(accession string) error {
	if accession == "" {
		if err := e.store.DeleteAll(); err != nil {
			return err
		}
		log.Info().Msg("metadata cache cleared")
		return nil
	}

	if err := e.store.Delete(accession); err != nil {
		if errors.Is(err, cache.ErrNotCached) {
			return nil
		}
		return err
	}

	log.Info().Str("accession", accession).Msg("metadata cache entry cleared")
	return nil
}

// putRecord writes a raw document through to the metadata store. Write
// failures degrade to a warning; the triggering operation proceeds without
// the cache benefit.
func (e *Engine) putRecord(accession string, raw map[string]any) []string {
	doc, err := json.Marshal(raw)
	if err != nil {
		log.Warn().Err(err).Str("accession", accession).Msg("failed to encode experiment for cache")
		return []string{fmt.Sprintf("cache write skipped for %s: %v", accession, err)}
	}

	if err := e.store.Put(accession, doc); err != nil {
		log.Warn().Err(err).Str("accession", accession).Msg("failed to write metadata cache")
		return []string{fmt.Sprintf("cache write failed for %s: %v", accession, err)}
	}

	return nil
}
