package encode

import (
	"github.com/rs/zerolog/log"
)

// ExperimentRecord is the in-memory representation of one experiment. The
// raw portal document is kept verbatim; the exported fields below are
// derived from it on construction and re-derived whenever the raw payload
// is replaced.
//
// A record starts thin: listing entries and frame=object fetches carry file
// references instead of embedded file objects. File views call
// EnsureComplete to upgrade the record before reading files.
type ExperimentRecord struct {
	Accession      string
	Organism       string
	Assay          string
	Biosample      string
	Lab            string
	Status         string
	Link           string
	Description    string
	Targets        []string
	ReplicateCount int

	// Warnings collects degraded-cache signals encountered while working
	// with this record. They never fail the owning operation.
	Warnings []string

	engine *Engine
	raw    map[string]any

	// completeFetched marks that an embedded fetch already happened for the
	// current raw payload, so a portal that keeps returning a thin document
	// cannot cause a refetch loop. SetRaw resets it.
	completeFetched bool
	filesMemo       *filesMemo
}

func newRecord(engine *Engine, raw map[string]any, accession string, warnings []string) *ExperimentRecord {
	record := &ExperimentRecord{
		Accession: accession,
		Warnings:  warnings,
		engine:    engine,
	}
	record.SetRaw(raw)
	return record
}

// Raw returns the current raw portal document.
func (r *ExperimentRecord) Raw() map[string]any {
	return r.raw
}

// SetRaw replaces the raw payload and re-derives every normalized field.
// All derived caches, including the file-view memo and the completeness
// generation, are invalidated.
func (r *ExperimentRecord) SetRaw(raw map[string]any) {
	r.raw = raw
	r.filesMemo = nil
	r.completeFetched = false

	if raw == nil {
		return
	}

	if accession, ok := raw["accession"].(string); ok && accession != "" {
		r.Accession = accession
	}

	organism, _ := OrganismName(raw)
	r.Organism = organism
	r.Assay = stringField(raw, "assay_title", "Unknown")
	r.Biosample = stringField(raw, "biosample_summary", "Unknown")
	r.Lab = nestedString(raw, "lab", "title")
	if r.Lab == "" {
		r.Lab = "Unknown"
	}
	r.Status = stringField(raw, "status", "Unknown")
	r.Description = stringField(raw, "description", "")
	r.Targets = TargetLabels(raw["target"])

	if replicates, ok := raw["replicates"].([]any); ok {
		r.ReplicateCount = len(replicates)
	} else {
		r.ReplicateCount = 0
	}

	if r.engine != nil && r.Accession != "" {
		r.Link = r.engine.source.ExperimentURL(r.Accession)
	}
}

// IsComplete reports whether the raw payload carries fully embedded file
// objects: the files collection is non-empty and every element is an object
// with its own accession field. Reference strings and partially embedded
// objects leave the record thin.
func (r *ExperimentRecord) IsComplete() bool {
	if r.raw == nil {
		return false
	}

	files, ok := r.raw["files"].([]any)
	if !ok || len(files) == 0 {
		return false
	}

	for _, entry := range files {
		file, ok := entry.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := file["accession"]; !ok {
			return false
		}
	}

	return true
}

// EnsureComplete upgrades a thin record by refetching it with embedded
// sub-objects, replacing the raw payload and writing through to the
// metadata cache. At most one portal call is made per raw-payload
// generation, so repeated calls with no data change are free.
func (r *ExperimentRecord) EnsureComplete() error {
	if r.IsComplete() || r.completeFetched {
		return nil
	}

	if r.Accession == "" {
		return &ValidationError{Reason: "cannot fetch embedded data without an accession"}
	}
	if r.engine == nil {
		return &ValidationError{Reason: "record is not attached to an engine"}
	}

	log.Debug().Str("accession", r.Accession).Msg("fetching embedded experiment data")

	raw, err := r.engine.source.Experiment(r.Accession, true)
	if err != nil {
		return err
	}

	r.SetRaw(raw)
	r.completeFetched = true
	r.Warnings = append(r.Warnings, r.engine.putRecord(r.Accession, raw)...)

	return nil
}

// Summary returns the record's derived fields as a plain structure for
// callers that serialize results.
func (r *ExperimentRecord) Summary() map[string]any {
	return map[string]any{
		"accession":       r.Accession,
		"organism":        r.Organism,
		"assay":           r.Assay,
		"targets":         r.Targets,
		"biosample":       r.Biosample,
		"lab":             r.Lab,
		"status":          r.Status,
		"replicate_count": r.ReplicateCount,
		"description":     r.Description,
		"link":            r.Link,
	}
}
