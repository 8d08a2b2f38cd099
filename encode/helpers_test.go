package encode

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"encode-portal/cache"
	"encode-portal/portal"
)

// fakeSource implements Source in memory for engine tests.
type fakeSource struct {
	thin     map[string]map[string]any
	embedded map[string]map[string]any
	listing  []map[string]any

	fileBodies map[string][]byte

	listingErr error

	thinCalls     int
	embeddedCalls int
	listingCalls  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		thin:       map[string]map[string]any{},
		embedded:   map[string]map[string]any{},
		fileBodies: map[string][]byte{},
	}
}

func (f *fakeSource) Experiment(accession string, embedded bool) (map[string]any, error) {
	if embedded {
		f.embeddedCalls++
		if doc, ok := f.embedded[accession]; ok {
			return doc, nil
		}
	} else {
		f.thinCalls++
		if doc, ok := f.thin[accession]; ok {
			return doc, nil
		}
	}
	return nil, &portal.NotFoundError{Accession: accession}
}

func (f *fakeSource) Listing() ([]map[string]any, error) {
	f.listingCalls++
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	return f.listing, nil
}

func (f *fakeSource) OpenFile(href string) (io.ReadCloser, error) {
	if strings.Contains(href, "broken") {
		return io.NopCloser(&brokenReader{}), nil
	}
	body, ok := f.fileBodies[href]
	if !ok {
		return nil, &portal.RequestError{URL: href, Status: 404}
	}
	return io.NopCloser(strings.NewReader(string(body))), nil
}

func (f *fakeSource) FileURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return "https://portal.test" + href
}

func (f *fakeSource) ExperimentURL(accession string) string {
	return "https://portal.test/experiments/" + accession + "/"
}

// brokenReader fails mid-stream after yielding a few bytes.
type brokenReader struct {
	sent bool
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		n := copy(p, []byte("partial"))
		return n, nil
	}
	return 0, errors.New("connection reset")
}

// failingStore wraps a Store and fails every Put.
type failingStore struct {
	inner interface {
		Get(accession string) ([]byte, error)
		Delete(accession string) error
		DeleteAll() error
	}
}

func (s *failingStore) Put(string, []byte) error {
	return errors.New("disk full")
}

func (s *failingStore) Get(accession string) ([]byte, error) {
	return s.inner.Get(accession)
}

func (s *failingStore) Delete(accession string) error {
	return s.inner.Delete(accession)
}

func (s *failingStore) DeleteAll() error {
	return s.inner.DeleteAll()
}

func (s *failingStore) Stats() (cache.Stats, error) {
	return cache.Stats{Buckets: map[string]int{}}, nil
}

func thinDoc(accession string) map[string]any {
	return map[string]any{
		"accession":         accession,
		"assay_title":       "TF ChIP-seq",
		"biosample_summary": "K562 cell line",
		"biosample_ontology": map[string]any{
			"term_name": "K562",
		},
		"description": "ChIP-seq on K562",
		"status":      "released",
		"lab":         map[string]any{"title": "Test Lab"},
		"target":      map[string]any{"label": "CTCF"},
		"replicates": []any{
			map[string]any{
				"library": map[string]any{
					"biosample": map[string]any{
						"organism": map[string]any{
							"scientific_name": "Homo sapiens",
						},
					},
				},
			},
		},
		"files": []any{"/files/ENCFF000AAA/"},
	}
}

func embeddedDoc(accession string, files []any) map[string]any {
	doc := thinDoc(accession)
	doc["files"] = files
	return doc
}

func fileDoc(accession, fileType, status string, extra map[string]any) map[string]any {
	doc := map[string]any{
		"accession":       accession,
		"file_type":       fileType,
		"status":          status,
		"output_category": "raw data",
		"output_type":     "reads",
		"href":            fmt.Sprintf("/files/%s/@@download/%s.fastq.gz", accession, accession),
	}
	for key, value := range extra {
		doc[key] = value
	}
	return doc
}
