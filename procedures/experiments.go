package procedures

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"encode-portal/encode"
)

const defaultListLimit = 100

// AccessionInput identifies one experiment.
type AccessionInput struct {
	Accession string `json:"accession" jsonschema:"experiment accession (e.g. 'ENCSR000CDC')"`
}

func (s *Server) getExperiment(_ context.Context, _ *mcp.CallToolRequest, input AccessionInput) (*mcp.CallToolResult, ExperimentSummary, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, ExperimentSummary{}, err
	}
	return nil, summarize(record), nil
}

// AllMetadataResult carries an experiment's full raw portal document.
type AllMetadataResult struct {
	Accession string         `json:"accession" jsonschema:"experiment accession"`
	Metadata  map[string]any `json:"metadata" jsonschema:"full raw portal document"`
}

func (s *Server) getAllMetadata(_ context.Context, _ *mcp.CallToolRequest, input AccessionInput) (*mcp.CallToolResult, AllMetadataResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, AllMetadataResult{}, err
	}
	return nil, AllMetadataResult{Accession: record.Accession, Metadata: record.Raw()}, nil
}

// ListExperimentsInput pages through the bulk listing.
type ListExperimentsInput struct {
	Limit  int `json:"limit,omitempty" jsonschema:"maximum number of experiments to return (default 100)"`
	Offset int `json:"offset,omitempty" jsonschema:"starting index"`
}

// ListingEntry is one row of list_experiments output.
type ListingEntry struct {
	Accession        string `json:"accession"`
	AssayTitle       string `json:"assay_title"`
	BiosampleSummary string `json:"biosample_summary"`
	Organism         string `json:"organism"`
	Status           string `json:"status"`
}

// ListExperimentsResult is the paginated listing slice.
type ListExperimentsResult struct {
	Total       int            `json:"total" jsonschema:"total number of loaded experiments"`
	Offset      int            `json:"offset"`
	Limit       int            `json:"limit"`
	Returned    int            `json:"returned"`
	Experiments []ListingEntry `json:"experiments"`
}

func (s *Server) listExperiments(_ context.Context, _ *mcp.CallToolRequest, input ListExperimentsInput) (*mcp.CallToolResult, ListExperimentsResult, error) {
	experiments, err := s.engine.Experiments()
	if err != nil {
		return nil, ListExperimentsResult{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(experiments) {
		offset = len(experiments)
	}
	end := offset + limit
	if end > len(experiments) {
		end = len(experiments)
	}

	page := experiments[offset:end]
	result := ListExperimentsResult{
		Total:       len(experiments),
		Offset:      offset,
		Limit:       limit,
		Returned:    len(page),
		Experiments: make([]ListingEntry, 0, len(page)),
	}
	for _, doc := range page {
		organism, _ := encode.OrganismName(doc)
		entry := ListingEntry{Organism: organism}
		entry.Accession, _ = doc["accession"].(string)
		entry.AssayTitle, _ = doc["assay_title"].(string)
		entry.BiosampleSummary, _ = doc["biosample_summary"].(string)
		entry.Status, _ = doc["status"].(string)
		result.Experiments = append(result.Experiments, entry)
	}

	return nil, result, nil
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// ServerInfoResult reports the server's deployment configuration.
type ServerInfoResult struct {
	ServerName string `json:"server_name"`
	Version    string `json:"version"`
	PortalURL  string `json:"portal_url"`
	CacheDir   string `json:"cache_dir"`
	FilesDir   string `json:"files_dir"`
	Transport  string `json:"transport"`
	HTTPAddr   string `json:"http_addr,omitempty"`
}

func (s *Server) getServerInfo(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, ServerInfoResult, error) {
	return nil, ServerInfoResult{
		ServerName: serverName,
		Version:    serverVersion,
		PortalURL:  s.info.PortalURL,
		CacheDir:   s.info.CacheDir,
		FilesDir:   s.info.FilesDir,
		Transport:  s.info.Transport,
		HTTPAddr:   s.info.HTTPAddr,
	}, nil
}
