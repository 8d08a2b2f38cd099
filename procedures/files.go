package procedures

import (
	"context"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"encode-portal/encode"
)

// FileTypesResult lists an experiment's available file types.
type FileTypesResult struct {
	FileTypes []string `json:"file_types" jsonschema:"available file types, sorted"`
}

func (s *Server) getFileTypes(_ context.Context, _ *mcp.CallToolRequest, input AccessionInput) (*mcp.CallToolResult, FileTypesResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, FileTypesResult{}, err
	}

	types, err := record.FileTypes()
	if err != nil {
		return nil, FileTypesResult{}, err
	}
	return nil, FileTypesResult{FileTypes: types}, nil
}

// FilesByTypeInput filters an experiment's files.
type FilesByTypeInput struct {
	Accession  string `json:"accession" jsonschema:"experiment accession"`
	AfterDate  string `json:"after_date,omitempty" jsonschema:"only include files released on or after this date (YYYY-MM-DD)"`
	FileStatus string `json:"file_status,omitempty" jsonschema:"file status filter (default 'released')"`
}

// FilesByTypeResult groups file metadata by file type.
type FilesByTypeResult struct {
	FilesByType map[string][]encode.FileRecord `json:"files_by_type" jsonschema:"file metadata grouped by file type"`
}

func (s *Server) getFilesByType(_ context.Context, _ *mcp.CallToolRequest, input FilesByTypeInput) (*mcp.CallToolResult, FilesByTypeResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, FilesByTypeResult{}, err
	}

	filesByType, err := record.FilesByType(input.AfterDate, input.FileStatus)
	if err != nil {
		return nil, FilesByTypeResult{}, err
	}
	return nil, FilesByTypeResult{FilesByType: filesByType}, nil
}

// FileAccessionsByTypeInput filters the accession grouping by file type.
type FileAccessionsByTypeInput struct {
	Accession string   `json:"accession" jsonschema:"experiment accession"`
	AfterDate string   `json:"after_date,omitempty" jsonschema:"only include files released on or after this date (YYYY-MM-DD)"`
	FileTypes []string `json:"file_types,omitempty" jsonschema:"restrict to these file types"`
}

// AccessionGroupsResult groups file accessions by a classification axis.
type AccessionGroupsResult struct {
	Accessions map[string][]string `json:"accessions" jsonschema:"file accessions per group"`
}

func (s *Server) getFileAccessionsByType(_ context.Context, _ *mcp.CallToolRequest, input FileAccessionsByTypeInput) (*mcp.CallToolResult, AccessionGroupsResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, AccessionGroupsResult{}, err
	}

	accessions, err := record.FileAccessionsByType(input.AfterDate, input.FileTypes)
	if err != nil {
		return nil, AccessionGroupsResult{}, err
	}
	return nil, AccessionGroupsResult{Accessions: accessions}, nil
}

// OutputValuesResult lists distinct values of a classification axis.
type OutputValuesResult struct {
	Values []string `json:"values" jsonschema:"distinct values, sorted"`
}

func (s *Server) getOutputCategories(_ context.Context, _ *mcp.CallToolRequest, input AccessionInput) (*mcp.CallToolResult, OutputValuesResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, OutputValuesResult{}, err
	}

	categories, err := record.OutputCategories()
	if err != nil {
		return nil, OutputValuesResult{}, err
	}
	return nil, OutputValuesResult{Values: categories}, nil
}

func (s *Server) getOutputTypes(_ context.Context, _ *mcp.CallToolRequest, input AccessionInput) (*mcp.CallToolResult, OutputValuesResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, OutputValuesResult{}, err
	}

	types, err := record.OutputTypes()
	if err != nil {
		return nil, OutputValuesResult{}, err
	}
	return nil, OutputValuesResult{Values: types}, nil
}

// FileAccessionsByOutputCategoryInput filters the grouping by category.
type FileAccessionsByOutputCategoryInput struct {
	Accession        string   `json:"accession" jsonschema:"experiment accession"`
	OutputCategories []string `json:"output_categories,omitempty" jsonschema:"restrict to these output categories"`
}

func (s *Server) getFileAccessionsByOutputCategory(_ context.Context, _ *mcp.CallToolRequest, input FileAccessionsByOutputCategoryInput) (*mcp.CallToolResult, AccessionGroupsResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, AccessionGroupsResult{}, err
	}

	accessions, err := record.FileAccessionsByOutputCategory(input.OutputCategories)
	if err != nil {
		return nil, AccessionGroupsResult{}, err
	}
	return nil, AccessionGroupsResult{Accessions: accessions}, nil
}

// FileAccessionsByOutputTypeInput filters the grouping by output type.
type FileAccessionsByOutputTypeInput struct {
	Accession   string   `json:"accession" jsonschema:"experiment accession"`
	OutputTypes []string `json:"output_types,omitempty" jsonschema:"restrict to these output types"`
}

func (s *Server) getFileAccessionsByOutputType(_ context.Context, _ *mcp.CallToolRequest, input FileAccessionsByOutputTypeInput) (*mcp.CallToolResult, AccessionGroupsResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, AccessionGroupsResult{}, err
	}

	accessions, err := record.FileAccessionsByOutputType(input.OutputTypes)
	if err != nil {
		return nil, AccessionGroupsResult{}, err
	}
	return nil, AccessionGroupsResult{Accessions: accessions}, nil
}

// FilesSummaryInput optionally truncates the per-type file lists.
type FilesSummaryInput struct {
	Accession       string `json:"accession" jsonschema:"experiment accession"`
	MaxFilesPerType int    `json:"max_files_per_type,omitempty" jsonschema:"maximum files to include per type (0 keeps all)"`
}

// FilesSummaryResult reports per-type counts and truncated file lists.
type FilesSummaryResult struct {
	Summary map[string]encode.FileTypeSummary `json:"summary" jsonschema:"per file type counts and files"`
}

func (s *Server) getFilesSummary(_ context.Context, _ *mcp.CallToolRequest, input FilesSummaryInput) (*mcp.CallToolResult, FilesSummaryResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, FilesSummaryResult{}, err
	}

	summary, err := record.FilesSummary(input.MaxFilesPerType)
	if err != nil {
		return nil, FilesSummaryResult{}, err
	}
	return nil, FilesSummaryResult{Summary: summary}, nil
}

// FileLookupInput identifies one file within an experiment.
type FileLookupInput struct {
	Accession     string `json:"accession" jsonschema:"experiment accession"`
	FileAccession string `json:"file_accession" jsonschema:"file accession (e.g. 'ENCFF001JZK')"`
}

// FileMetadataResult carries one file's metadata; Found is false for
// unknown file accessions.
type FileMetadataResult struct {
	Found    bool              `json:"found" jsonschema:"whether the file exists in the experiment"`
	Metadata encode.FileRecord `json:"metadata,omitempty" jsonschema:"full file metadata"`
}

func (s *Server) getFileMetadata(_ context.Context, _ *mcp.CallToolRequest, input FileLookupInput) (*mcp.CallToolResult, FileMetadataResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, FileMetadataResult{}, err
	}

	metadata, found, err := record.FileMetadata(input.FileAccession)
	if err != nil {
		return nil, FileMetadataResult{}, err
	}
	return nil, FileMetadataResult{Found: found, Metadata: metadata}, nil
}

// FileURLResult carries one file's resolved download URL.
type FileURLResult struct {
	Found bool   `json:"found" jsonschema:"whether the file exists and has a download path"`
	URL   string `json:"url,omitempty" jsonschema:"absolute download URL"`
}

func (s *Server) getFileURL(_ context.Context, _ *mcp.CallToolRequest, input FileLookupInput) (*mcp.CallToolResult, FileURLResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, FileURLResult{}, err
	}

	url, found, err := record.FileURL(input.FileAccession)
	if err != nil {
		return nil, FileURLResult{}, err
	}
	return nil, FileURLResult{Found: found, URL: url}, nil
}

// DownloadFilesInput selects which of an experiment's files to download.
type DownloadFilesInput struct {
	Accession      string   `json:"accession" jsonschema:"experiment accession"`
	FileTypes      []string `json:"file_types,omitempty" jsonschema:"restrict to these file types"`
	FileAccessions []string `json:"file_accessions,omitempty" jsonschema:"restrict to these file accessions (wins over file_types)"`
}

func (s *Server) downloadFiles(_ context.Context, _ *mcp.CallToolRequest, input DownloadFilesInput) (*mcp.CallToolResult, encode.DownloadResult, error) {
	record, err := s.engine.Experiment(input.Accession)
	if err != nil {
		return nil, encode.DownloadResult{}, err
	}

	outputDir := filepath.Join(s.info.FilesDir, record.Accession)
	result, err := record.DownloadFiles(outputDir, encode.DownloadOptions{
		FileTypes:  input.FileTypes,
		Accessions: input.FileAccessions,
	})
	if err != nil {
		return nil, encode.DownloadResult{}, err
	}
	return nil, *result, nil
}
