package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encode-portal/cache/memoryCache"
)

func searchCorpus() []map[string]any {
	human := func(accession, summary, term, assay, target, status string) map[string]any {
		return map[string]any{
			"accession":         accession,
			"assay_title":       assay,
			"biosample_summary": summary,
			"biosample_ontology": map[string]any{
				"term_name": term,
			},
			"status": status,
			"target": map[string]any{"label": target},
			"replicates": []any{
				map[string]any{
					"library": map[string]any{
						"biosample": map[string]any{
							"organism": map[string]any{"scientific_name": "Homo sapiens"},
						},
					},
				},
			},
		}
	}

	mouse := human("ENCSR000DDD", "mouse heart tissue", "heart", "polyA plus RNA-seq", "", "released")
	mouse["replicates"] = []any{
		map[string]any{
			"library": map[string]any{
				"biosample": map[string]any{
					"organism": map[string]any{"scientific_name": "Mus musculus"},
				},
			},
		},
	}

	return []map[string]any{
		human("ENCSR000AAA", "K562 cell line", "K562", "TF ChIP-seq", "CTCF", "released"),
		human("ENCSR000BBB", "GM12878 cell line", "GM12878", "TF ChIP-seq", "POLR2A", "released"),
		human("ENCSR000CCC", "K562 cell line", "K562", "TF ChIP-seq", "CTCF", "revoked"),
		mouse,
	}
}

func newSearchEngine() (*Engine, *fakeSource) {
	source := newFakeSource()
	source.listing = searchCorpus()
	store := memoryCache.New()
	return NewEngine(source, store, store), source
}

func TestSearchRaw(t *testing.T) {
	t.Run("revoked experiments are excluded by default", func(t *testing.T) {
		engine, _ := newSearchEngine()
		results, err := engine.SearchRaw(SearchOptions{Organism: "Homo sapiens"})
		require.NoError(t, err)

		for _, doc := range results {
			assert.NotEqual(t, "revoked", doc["status"])
		}
		assert.Len(t, results, 2)
	})

	t.Run("include revoked brings them back", func(t *testing.T) {
		engine, _ := newSearchEngine()
		results, err := engine.SearchRaw(SearchOptions{Organism: "Homo sapiens", IncludeRevoked: true})
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("organism match is exact", func(t *testing.T) {
		engine, _ := newSearchEngine()
		results, err := engine.SearchRaw(SearchOptions{Organism: "Mus musculus"})
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "ENCSR000DDD", results[0]["accession"])
	})

	t.Run("term matches biosample summary or ontology term", func(t *testing.T) {
		engine, _ := newSearchEngine()

		bySummary, err := engine.SearchRaw(SearchOptions{Term: "k562"})
		require.NoError(t, err)
		assert.Len(t, bySummary, 1)

		byTerm, err := engine.SearchRaw(SearchOptions{Term: "HEART"})
		require.NoError(t, err)
		require.Len(t, byTerm, 1)
		assert.Equal(t, "ENCSR000DDD", byTerm[0]["accession"])
	})

	t.Run("assay title matches exactly, case-insensitively", func(t *testing.T) {
		engine, _ := newSearchEngine()

		results, err := engine.SearchRaw(SearchOptions{AssayTitle: "tf chip-seq"})
		require.NoError(t, err)
		assert.Len(t, results, 2)

		partial, err := engine.SearchRaw(SearchOptions{AssayTitle: "ChIP"})
		require.NoError(t, err)
		assert.Empty(t, partial)
	})

	t.Run("target matches partially", func(t *testing.T) {
		engine, _ := newSearchEngine()
		results, err := engine.SearchRaw(SearchOptions{Target: "ctc"})
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "ENCSR000AAA", results[0]["accession"])
	})

	t.Run("predicates combine with AND", func(t *testing.T) {
		engine, _ := newSearchEngine()
		results, err := engine.SearchRaw(SearchOptions{
			Organism: "Homo sapiens",
			Term:     "K562",
			Target:   "POLR2A",
		})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("results preserve listing order", func(t *testing.T) {
		engine, _ := newSearchEngine()
		results, err := engine.SearchRaw(SearchOptions{Organism: "Homo sapiens"})
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "ENCSR000AAA", results[0]["accession"])
		assert.Equal(t, "ENCSR000BBB", results[1]["accession"])
	})

	t.Run("explicit corpus overrides the listing", func(t *testing.T) {
		engine, source := newSearchEngine()
		corpus := searchCorpus()[:1]

		results, err := engine.SearchRaw(SearchOptions{Organism: "Homo sapiens", Corpus: corpus})
		require.NoError(t, err)

		assert.Len(t, results, 1)
		assert.Zero(t, source.listingCalls)
	})
}

func TestSearchHydrates(t *testing.T) {
	engine, _ := newSearchEngine()

	records, err := engine.Search(SearchOptions{Organism: "Homo sapiens"})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "ENCSR000AAA", records[0].Accession)
	assert.Equal(t, "Homo sapiens", records[0].Organism)
	assert.Equal(t, []string{"CTCF"}, records[0].Targets)
}
