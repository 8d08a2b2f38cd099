package encode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DownloadOptions selects which of an experiment's files to download. When
// both filters are given the accession filter wins; when neither is given
// every file is selected.
type DownloadOptions struct {
	FileTypes  []string
	Accessions []string
}

// DownloadFailure records one file that could not be downloaded, with its
// cause. Failures never abort the rest of the batch.
type DownloadFailure struct {
	Accession string `json:"accession"`
	Reason    string `json:"reason"`
}

// DownloadResult reports the outcome of a download batch.
type DownloadResult struct {
	Downloaded []string          `json:"downloaded"`
	Failed     []DownloadFailure `json:"failed"`
	Skipped    []string          `json:"skipped"`
	OutputDir  string            `json:"output_dir"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// DownloadFiles fetches the selected files into outputDir, one at a time.
// Existing targets are skipped. Each transfer streams to a .tmp sibling and
// is renamed into place only after the full body arrived; a failed transfer
// removes the partial file and is recorded with its cause.
func (r *ExperimentRecord) DownloadFiles(outputDir string, opts DownloadOptions) (*DownloadResult, error) {
	filesByType, err := r.FilesByType("", "")
	if err != nil {
		return nil, err
	}

	//nolint:gosec,mnd // Directory permissions 0755 are intentional
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	selected := selectFiles(filesByType, opts)

	result := &DownloadResult{
		Downloaded: []string{},
		Failed:     []DownloadFailure{},
		Skipped:    []string{},
		OutputDir:  outputDir,
		Warnings:   r.Warnings,
	}

	log.Info().
		Str("accession", r.Accession).
		Int("files", len(selected)).
		Str("output_dir", outputDir).
		Msg("starting file downloads")

	for _, file := range selected {
		r.downloadOne(file, outputDir, result)
	}

	log.Info().
		Str("accession", r.Accession).
		Int("downloaded", len(result.Downloaded)).
		Int("failed", len(result.Failed)).
		Int("skipped", len(result.Skipped)).
		Msg("file downloads finished")

	return result, nil
}

func selectFiles(filesByType map[string][]FileRecord, opts DownloadOptions) []FileRecord {
	if len(opts.Accessions) > 0 {
		wanted := toSet(opts.Accessions)
		selected := []FileRecord{}
		for _, files := range filesByType {
			for _, file := range files {
				if wanted[file.Accession()] {
					selected = append(selected, file)
				}
			}
		}
		return selected
	}

	if len(opts.FileTypes) > 0 {
		selected := []FileRecord{}
		for _, fileType := range opts.FileTypes {
			selected = append(selected, filesByType[fileType]...)
		}
		return selected
	}

	selected := []FileRecord{}
	for _, files := range filesByType {
		selected = append(selected, files...)
	}
	return selected
}

func (r *ExperimentRecord) downloadOne(file FileRecord, outputDir string, result *DownloadResult) {
	accession := file.Accession()
	if accession == "" {
		result.Skipped = append(result.Skipped, "unknown")
		return
	}

	filename := downloadFilename(file)
	if !safeFilename(filename) {
		result.Failed = append(result.Failed, DownloadFailure{
			Accession: accession,
			Reason:    "invalid or unsafe filename",
		})
		return
	}

	targetPath := filepath.Join(outputDir, filename)
	if _, err := os.Stat(targetPath); err == nil {
		log.Debug().Str("file", accession).Str("filename", filename).Msg("target exists, skipping")
		result.Skipped = append(result.Skipped, accession)
		return
	}

	href := file.Href()
	if href == "" {
		result.Failed = append(result.Failed, DownloadFailure{
			Accession: accession,
			Reason:    "no download URL (href) found",
		})
		return
	}

	written, err := r.transfer(href, targetPath)
	if err != nil {
		result.Failed = append(result.Failed, DownloadFailure{
			Accession: accession,
			Reason:    err.Error(),
		})
		log.Warn().Err(err).Str("file", accession).Msg("download failed")
		return
	}

	result.Downloaded = append(result.Downloaded, accession)
	log.Info().
		Str("file", accession).
		Str("filename", filename).
		Int64("bytes", written).
		Msg("file downloaded")
}

// transfer streams the remote body to a temporary sibling and renames it
// into place once the full body arrived. Any failure removes the partial.
func (r *ExperimentRecord) transfer(href, targetPath string) (int64, error) {
	body, err := r.engine.source.OpenFile(href)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := body.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close download stream")
		}
	}()

	tempPath := targetPath + ".tmp"
	//nolint:gosec // G304: path is assembled from a validated basename
	temp, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(temp, body)
	if err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("transfer failed: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("failed to finish temporary file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}

	return written, nil
}

// downloadFilename derives the local filename from the explicit filename
// field, falling back to the tail of the href's @@download/ segment.
func downloadFilename(file FileRecord) string {
	if filename := file.Filename(); filename != "" {
		return filename
	}

	href := file.Href()
	if idx := strings.LastIndex(href, "@@download/"); idx >= 0 {
		return href[idx+len("@@download/"):]
	}

	return ""
}

// safeFilename rejects names that are empty, hidden, or could escape the
// output directory.
func safeFilename(filename string) bool {
	if filename == "" || strings.HasPrefix(filename, ".") {
		return false
	}
	if strings.ContainsAny(filename, "/\\") {
		return false
	}
	return true
}
