package encode

import (
	"sort"
	"strings"
	"time"
)

const (
	releaseDateLayout = "2006-01-02"

	// DefaultFileStatus is the status filter applied when callers pass an
	// empty status.
	DefaultFileStatus = "released"
)

// FileRecord is one file entity's metadata, owned by the experiment that
// embeds it. The portal document is kept as-is; the accessors below read
// the commonly used fields.
type FileRecord map[string]any

// Accession returns the file's own accession.
func (f FileRecord) Accession() string {
	accession, _ := f["accession"].(string)
	return accession
}

// Filename returns the explicit filename field, when present.
func (f FileRecord) Filename() string {
	filename, _ := f["filename"].(string)
	return filename
}

// Href returns the relative download path.
func (f FileRecord) Href() string {
	href, _ := f["href"].(string)
	return href
}

// FileType returns the portal file type, or "unknown".
func (f FileRecord) FileType() string {
	if fileType, ok := f["file_type"].(string); ok && fileType != "" {
		return fileType
	}
	return "unknown"
}

// OutputCategory returns the portal output category, or "unknown".
func (f FileRecord) OutputCategory() string {
	if category, ok := f["output_category"].(string); ok && category != "" {
		return category
	}
	return "unknown"
}

// OutputType returns the portal output type, or "unknown".
func (f FileRecord) OutputType() string {
	if outputType, ok := f["output_type"].(string); ok && outputType != "" {
		return outputType
	}
	return "unknown"
}

type filesMemo struct {
	afterDate string
	status    string
	files     map[string][]FileRecord
}

// FilesByType groups the experiment's files by file type, filtered by exact
// status match and, when afterDate is given (strictly YYYY-MM-DD), by the
// file's release date being on or after that date. A file without a
// parseable release date passes the date filter. The record is upgraded to
// embedded file objects first; the result is memoized per (afterDate,
// status) pair.
func (r *ExperimentRecord) FilesByType(afterDate, status string) (map[string][]FileRecord, error) {
	if status == "" {
		status = DefaultFileStatus
	}

	var after time.Time
	if afterDate != "" {
		parsed, err := time.Parse(releaseDateLayout, afterDate)
		if err != nil {
			return nil, &ValidationError{Reason: "invalid date format: " + afterDate + " (use YYYY-MM-DD)"}
		}
		after = parsed
	}

	if r.filesMemo != nil && r.filesMemo.afterDate == afterDate && r.filesMemo.status == status {
		return r.filesMemo.files, nil
	}

	if err := r.EnsureComplete(); err != nil {
		return nil, err
	}

	filesByType := map[string][]FileRecord{}

	rawFiles, _ := r.raw["files"].([]any)
	for _, entry := range rawFiles {
		raw, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		file := FileRecord{}
		for key, value := range raw {
			if strings.HasPrefix(key, "@") {
				continue
			}
			file[key] = value
		}

		if fileStatus, _ := file["status"].(string); fileStatus != status {
			continue
		}

		if afterDate != "" {
			if released, ok := file["date_released"].(string); ok && len(released) >= len(releaseDateLayout) {
				// Unparsable per-file dates pass the filter.
				if releasedAt, err := time.Parse(releaseDateLayout, released[:len(releaseDateLayout)]); err == nil {
					if releasedAt.Before(after) {
						continue
					}
				}
			}
		}

		fileType := file.FileType()
		filesByType[fileType] = append(filesByType[fileType], file)
	}

	r.filesMemo = &filesMemo{afterDate: afterDate, status: status, files: filesByType}

	return filesByType, nil
}

// FileTypes returns the experiment's available file types, sorted.
func (r *ExperimentRecord) FileTypes() ([]string, error) {
	filesByType, err := r.FilesByType("", "")
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(filesByType))
	for fileType := range filesByType {
		types = append(types, fileType)
	}
	sort.Strings(types)

	return types, nil
}

// OutputCategories returns the distinct output categories, sorted.
func (r *ExperimentRecord) OutputCategories() ([]string, error) {
	return r.distinctFileField(func(f FileRecord) string {
		category, _ := f["output_category"].(string)
		return category
	})
}

// OutputTypes returns the distinct output types, sorted.
func (r *ExperimentRecord) OutputTypes() ([]string, error) {
	return r.distinctFileField(func(f FileRecord) string {
		outputType, _ := f["output_type"].(string)
		return outputType
	})
}

func (r *ExperimentRecord) distinctFileField(read func(FileRecord) string) ([]string, error) {
	filesByType, err := r.FilesByType("", "")
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, files := range filesByType {
		for _, file := range files {
			if value := read(file); value != "" {
				seen[value] = true
			}
		}
	}

	values := make([]string, 0, len(seen))
	for value := range seen {
		values = append(values, value)
	}
	sort.Strings(values)

	return values, nil
}

// FileAccessionsByType returns file accessions grouped by file type,
// optionally restricted to the given types and release-date filtered.
func (r *ExperimentRecord) FileAccessionsByType(afterDate string, fileTypes []string) (map[string][]string, error) {
	filesByType, err := r.FilesByType(afterDate, "")
	if err != nil {
		return nil, err
	}

	wanted := toSet(fileTypes)
	accessions := map[string][]string{}
	for fileType, files := range filesByType {
		if wanted != nil && !wanted[fileType] {
			continue
		}
		group := make([]string, 0, len(files))
		for _, file := range files {
			group = append(group, file.Accession())
		}
		accessions[fileType] = group
	}

	return accessions, nil
}

// FileAccessionsByOutputCategory returns file accessions grouped by output
// category, optionally restricted to the given categories.
func (r *ExperimentRecord) FileAccessionsByOutputCategory(categories []string) (map[string][]string, error) {
	return r.groupAccessions(FileRecord.OutputCategory, categories)
}

// FileAccessionsByOutputType returns file accessions grouped by output
// type, optionally restricted to the given types.
func (r *ExperimentRecord) FileAccessionsByOutputType(outputTypes []string) (map[string][]string, error) {
	return r.groupAccessions(FileRecord.OutputType, outputTypes)
}

func (r *ExperimentRecord) groupAccessions(key func(FileRecord) string, wantedKeys []string) (map[string][]string, error) {
	filesByType, err := r.FilesByType("", "")
	if err != nil {
		return nil, err
	}

	wanted := toSet(wantedKeys)
	grouped := map[string][]string{}
	seen := map[string]bool{}
	for _, files := range filesByType {
		for _, file := range files {
			group := key(file)
			if wanted != nil && !wanted[group] {
				continue
			}

			accession := file.Accession()
			if accession == "" || seen[group+"/"+accession] {
				continue
			}
			seen[group+"/"+accession] = true
			grouped[group] = append(grouped[group], accession)
		}
	}

	return grouped, nil
}

// FileMetadata looks up one file by its accession. The second return value
// reports whether the file exists; an unknown accession is not an error.
func (r *ExperimentRecord) FileMetadata(accession string) (FileRecord, bool, error) {
	filesByType, err := r.FilesByType("", "")
	if err != nil {
		return nil, false, err
	}

	for _, files := range filesByType {
		for _, file := range files {
			if file.Accession() == accession {
				return file, true, nil
			}
		}
	}

	return nil, false, nil
}

// FileURL resolves the absolute download URL for a file accession. Unknown
// accessions and files without a download path report ok=false.
func (r *ExperimentRecord) FileURL(accession string) (string, bool, error) {
	file, ok, err := r.FileMetadata(accession)
	if err != nil || !ok {
		return "", false, err
	}

	href := file.Href()
	if href == "" {
		return "", false, nil
	}

	return r.engine.source.FileURL(href), true, nil
}

// FileTypeSummary is one file type's slice of a files summary.
type FileTypeSummary struct {
	Count int          `json:"count"`
	Files []FileRecord `json:"files"`
}

// FilesSummary returns per-type counts with the file lists optionally
// truncated to maxPerType entries. A non-positive maxPerType keeps every
// file.
func (r *ExperimentRecord) FilesSummary(maxPerType int) (map[string]FileTypeSummary, error) {
	filesByType, err := r.FilesByType("", "")
	if err != nil {
		return nil, err
	}

	summary := map[string]FileTypeSummary{}
	for fileType, files := range filesByType {
		kept := files
		if maxPerType > 0 && len(files) > maxPerType {
			kept = files[:maxPerType]
		}
		summary[fileType] = FileTypeSummary{Count: len(files), Files: kept}
	}

	return summary, nil
}

func toSet(values []string) map[string]bool {
	if values == nil {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[value] = true
	}
	return set
}
