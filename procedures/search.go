package procedures

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"encode-portal/encode"
)

// ExperimentSummary is the normalized per-experiment view returned by the
// search and lookup tools.
type ExperimentSummary struct {
	Accession      string   `json:"accession" jsonschema:"experiment accession"`
	Organism       string   `json:"organism" jsonschema:"organism scientific name"`
	Assay          string   `json:"assay" jsonschema:"assay title"`
	Targets        []string `json:"targets" jsonschema:"normalized target labels"`
	Biosample      string   `json:"biosample" jsonschema:"biosample summary"`
	Lab            string   `json:"lab" jsonschema:"lab title"`
	Status         string   `json:"status" jsonschema:"experiment status"`
	ReplicateCount int      `json:"replicate_count" jsonschema:"number of replicates"`
	Description    string   `json:"description" jsonschema:"free-text description"`
	Link           string   `json:"link" jsonschema:"portal link"`
}

func summarize(record *encode.ExperimentRecord) ExperimentSummary {
	return ExperimentSummary{
		Accession:      record.Accession,
		Organism:       record.Organism,
		Assay:          record.Assay,
		Targets:        record.Targets,
		Biosample:      record.Biosample,
		Lab:            record.Lab,
		Status:         record.Status,
		ReplicateCount: record.ReplicateCount,
		Description:    record.Description,
		Link:           record.Link,
	}
}

// SearchResult is the common output shape of the search tools.
type SearchResult struct {
	Count       int                 `json:"count" jsonschema:"number of matching experiments"`
	Experiments []ExperimentSummary `json:"experiments" jsonschema:"matching experiments"`
}

func (s *Server) runSearch(opts encode.SearchOptions) (SearchResult, error) {
	records, err := s.engine.Search(opts)
	if err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{
		Count:       len(records),
		Experiments: make([]ExperimentSummary, 0, len(records)),
	}
	for _, record := range records {
		result.Experiments = append(result.Experiments, summarize(record))
	}

	return result, nil
}

// SearchByBiosampleInput is the input for search_by_biosample.
type SearchByBiosampleInput struct {
	SearchTerm     string `json:"search_term" jsonschema:"cell type or tissue name to search for"`
	Organism       string `json:"organism,omitempty" jsonschema:"optional organism filter (e.g. 'Homo sapiens')"`
	AssayTitle     string `json:"assay_title,omitempty" jsonschema:"optional assay title filter"`
	Target         string `json:"target,omitempty" jsonschema:"optional target name filter (partial match)"`
	IncludeRevoked bool   `json:"include_revoked,omitempty" jsonschema:"include revoked experiments"`
}

func (s *Server) searchByBiosample(_ context.Context, _ *mcp.CallToolRequest, input SearchByBiosampleInput) (*mcp.CallToolResult, SearchResult, error) {
	result, err := s.runSearch(encode.SearchOptions{
		Term:           input.SearchTerm,
		Organism:       input.Organism,
		AssayTitle:     input.AssayTitle,
		Target:         input.Target,
		IncludeRevoked: input.IncludeRevoked,
	})
	if err != nil {
		return nil, SearchResult{}, err
	}
	return nil, result, nil
}

// SearchByOrganismInput is the input for search_by_organism.
type SearchByOrganismInput struct {
	Organism       string `json:"organism" jsonschema:"organism scientific name (e.g. 'Homo sapiens', 'Mus musculus')"`
	SearchTerm     string `json:"search_term,omitempty" jsonschema:"optional cell type or tissue name filter"`
	AssayTitle     string `json:"assay_title,omitempty" jsonschema:"optional assay title filter"`
	Target         string `json:"target,omitempty" jsonschema:"optional target name filter (partial match)"`
	IncludeRevoked bool   `json:"include_revoked,omitempty" jsonschema:"include revoked experiments"`
}

func (s *Server) searchByOrganism(_ context.Context, _ *mcp.CallToolRequest, input SearchByOrganismInput) (*mcp.CallToolResult, SearchResult, error) {
	result, err := s.runSearch(encode.SearchOptions{
		Organism:       input.Organism,
		Term:           input.SearchTerm,
		AssayTitle:     input.AssayTitle,
		Target:         input.Target,
		IncludeRevoked: input.IncludeRevoked,
	})
	if err != nil {
		return nil, SearchResult{}, err
	}
	return nil, result, nil
}

// SearchByTargetInput is the input for search_by_target.
type SearchByTargetInput struct {
	Target         string `json:"target" jsonschema:"target name to search for (partial match)"`
	Organism       string `json:"organism,omitempty" jsonschema:"optional organism filter"`
	AssayTitle     string `json:"assay_title,omitempty" jsonschema:"optional assay title filter"`
	IncludeRevoked bool   `json:"include_revoked,omitempty" jsonschema:"include revoked experiments"`
}

func (s *Server) searchByTarget(_ context.Context, _ *mcp.CallToolRequest, input SearchByTargetInput) (*mcp.CallToolResult, SearchResult, error) {
	result, err := s.runSearch(encode.SearchOptions{
		Target:         input.Target,
		Organism:       input.Organism,
		AssayTitle:     input.AssayTitle,
		IncludeRevoked: input.IncludeRevoked,
	})
	if err != nil {
		return nil, SearchResult{}, err
	}
	return nil, result, nil
}
