package encode

import (
	"strings"
)

// SearchOptions is the predicate set for experiment searches. All supplied
// predicates combine with AND; zero values are ignored. Revoked experiments
// are excluded unless IncludeRevoked is set.
type SearchOptions struct {
	// Organism matches the resolved organism scientific name exactly.
	Organism string
	// Term matches case-insensitively as a substring of the biosample
	// summary or the biosample ontology term name.
	Term string
	// AssayTitle matches the assay title exactly, case-insensitively.
	AssayTitle string
	// Target matches case-insensitively as a substring of any normalized
	// target label.
	Target string

	IncludeRevoked bool

	// Corpus restricts the search to the given documents instead of the
	// bulk listing. Iteration order is preserved in the results.
	Corpus []map[string]any
}

// SearchRaw returns the raw listing documents matching the predicate set,
// in corpus order, for callers that want to avoid per-result hydration.
func (e *Engine) SearchRaw(opts SearchOptions) ([]map[string]any, error) {
	corpus := opts.Corpus
	if corpus == nil {
		experiments, err := e.Experiments()
		if err != nil {
			return nil, err
		}
		corpus = experiments
	}

	matching := []map[string]any{}
	for _, doc := range corpus {
		if matches(doc, opts) {
			matching = append(matching, doc)
		}
	}

	return matching, nil
}

// Search returns hydrated records for the matching documents.
func (e *Engine) Search(opts SearchOptions) ([]*ExperimentRecord, error) {
	matching, err := e.SearchRaw(opts)
	if err != nil {
		return nil, err
	}

	records := make([]*ExperimentRecord, 0, len(matching))
	for _, doc := range matching {
		record, err := e.ExperimentFromRaw(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// IsRevoked reports whether a listing document's status is the literal
// "revoked".
func IsRevoked(doc map[string]any) bool {
	status, _ := doc["status"].(string)
	return status == "revoked"
}

func matches(doc map[string]any, opts SearchOptions) bool {
	if !opts.IncludeRevoked && IsRevoked(doc) {
		return false
	}

	if opts.Organism != "" {
		organism, _ := OrganismName(doc)
		if organism != opts.Organism {
			return false
		}
	}

	if opts.Term != "" {
		term := strings.ToLower(opts.Term)
		summary := strings.ToLower(stringField(doc, "biosample_summary", ""))
		ontologyTerm := strings.ToLower(nestedString(doc, "biosample_ontology", "term_name"))
		if !strings.Contains(summary, term) && !strings.Contains(ontologyTerm, term) {
			return false
		}
	}

	if opts.AssayTitle != "" {
		assay := stringField(doc, "assay_title", "")
		if !strings.EqualFold(assay, opts.AssayTitle) {
			return false
		}
	}

	if opts.Target != "" {
		target := strings.ToLower(opts.Target)
		matched := false
		for _, label := range TargetLabels(doc["target"]) {
			if strings.Contains(strings.ToLower(label), target) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}
