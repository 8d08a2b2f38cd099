package encode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encode-portal/cache/memoryCache"
)

func TestExperimentHydration(t *testing.T) {
	const accession = "ENCSR000AAA"

	t.Run("cache hit avoids the source entirely", func(t *testing.T) {
		source := newFakeSource()
		store := memoryCache.New()

		doc, err := json.Marshal(thinDoc(accession))
		require.NoError(t, err)
		require.NoError(t, store.Put(accession, doc))

		engine := NewEngine(source, store, store)
		record, err := engine.Experiment(accession)
		require.NoError(t, err)

		assert.Equal(t, accession, record.Accession)
		assert.Equal(t, "Homo sapiens", record.Organism)
		assert.Zero(t, source.thinCalls)
		assert.Zero(t, source.listingCalls)
	})

	t.Run("listing match writes back to the metadata cache", func(t *testing.T) {
		source := newFakeSource()
		source.listing = []map[string]any{thinDoc(accession)}
		store := memoryCache.New()

		engine := NewEngine(source, store, store)
		record, err := engine.Experiment(accession)
		require.NoError(t, err)

		assert.Equal(t, accession, record.Accession)
		assert.Zero(t, source.thinCalls)

		cached, err := store.Get(accession)
		require.NoError(t, err)
		assert.True(t, json.Valid(cached))
	})

	t.Run("remote fetch is the last resort", func(t *testing.T) {
		source := newFakeSource()
		source.thin[accession] = thinDoc(accession)
		store := memoryCache.New()

		engine := NewEngine(source, store, store)
		record, err := engine.Experiment(accession)
		require.NoError(t, err)

		assert.Equal(t, accession, record.Accession)
		assert.Equal(t, 1, source.thinCalls)

		_, err = store.Get(accession)
		assert.NoError(t, err)
	})

	t.Run("unknown accession reports not found", func(t *testing.T) {
		source := newFakeSource()
		store := memoryCache.New()

		engine := NewEngine(source, store, store)
		_, err := engine.Experiment("ENCSR999ZZZ")

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ENCSR999ZZZ", notFound.Accession)
	})

	t.Run("missing accession fails before any I/O", func(t *testing.T) {
		source := newFakeSource()
		store := memoryCache.New()

		engine := NewEngine(source, store, store)
		_, err := engine.Experiment("")

		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Zero(t, source.thinCalls)
		assert.Zero(t, source.listingCalls)
	})

	t.Run("cache write failure degrades to a warning", func(t *testing.T) {
		source := newFakeSource()
		source.listing = []map[string]any{thinDoc(accession)}
		store := memoryCache.New()

		engine := NewEngine(source, &failingStore{inner: store}, store)
		record, err := engine.Experiment(accession)
		require.NoError(t, err)

		assert.NotEmpty(t, record.Warnings)
	})
}

func TestExperimentFromRaw(t *testing.T) {
	engine := NewEngine(newFakeSource(), memoryCache.New(), memoryCache.New())

	t.Run("derives fields from the document", func(t *testing.T) {
		record, err := engine.ExperimentFromRaw(thinDoc("ENCSR000AAA"))
		require.NoError(t, err)

		assert.Equal(t, "ENCSR000AAA", record.Accession)
		assert.Equal(t, "TF ChIP-seq", record.Assay)
		assert.Equal(t, "K562 cell line", record.Biosample)
		assert.Equal(t, "Test Lab", record.Lab)
		assert.Equal(t, "released", record.Status)
		assert.Equal(t, []string{"CTCF"}, record.Targets)
		assert.Equal(t, 1, record.ReplicateCount)
		assert.Equal(t, "https://portal.test/experiments/ENCSR000AAA/", record.Link)
	})

	t.Run("nil document is rejected", func(t *testing.T) {
		_, err := engine.ExperimentFromRaw(nil)

		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestIsComplete(t *testing.T) {
	engine := NewEngine(newFakeSource(), memoryCache.New(), memoryCache.New())

	tests := []struct {
		name  string
		files any
		want  bool
	}{
		{"no files field", nil, false},
		{"empty list", []any{}, false},
		{"reference strings", []any{"/files/ENCFF000AAA/"}, false},
		{"partially embedded objects", []any{map[string]any{"href": "/x"}}, false},
		{
			"mixed embedded and reference",
			[]any{map[string]any{"accession": "ENCFF000AAA"}, "/files/ENCFF000BBB/"},
			false,
		},
		{
			"one partial among embedded",
			[]any{
				map[string]any{"accession": "ENCFF000AAA"},
				map[string]any{"href": "/x"},
			},
			false,
		},
		{
			"fully embedded",
			[]any{
				map[string]any{"accession": "ENCFF000AAA"},
				map[string]any{"accession": "ENCFF000BBB"},
			},
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := thinDoc("ENCSR000AAA")
			if tc.files == nil {
				delete(doc, "files")
			} else {
				doc["files"] = tc.files
			}

			record, err := engine.ExperimentFromRaw(doc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, record.IsComplete())
		})
	}
}

func TestEnsureComplete(t *testing.T) {
	const accession = "ENCSR000AAA"

	newEngineWithThin := func(t *testing.T) (*Engine, *fakeSource, *memoryCache.Cache) {
		t.Helper()
		source := newFakeSource()
		source.thin[accession] = thinDoc(accession)
		source.embedded[accession] = embeddedDoc(accession, []any{
			fileDoc("ENCFF000AAA", "fastq", "released", nil),
		})
		store := memoryCache.New()
		return NewEngine(source, store, store), source, store
	}

	t.Run("thin record fetches embedded data once", func(t *testing.T) {
		engine, source, store := newEngineWithThin(t)

		record, err := engine.Experiment(accession)
		require.NoError(t, err)
		require.False(t, record.IsComplete())

		require.NoError(t, record.EnsureComplete())
		assert.True(t, record.IsComplete())
		assert.Equal(t, 1, source.embeddedCalls)

		// Embedded document was written through.
		cached, err := store.Get(accession)
		require.NoError(t, err)
		raw := map[string]any{}
		require.NoError(t, json.Unmarshal(cached, &raw))
		_, hasFiles := raw["files"].([]any)
		assert.True(t, hasFiles)
	})

	t.Run("complete record never refetches", func(t *testing.T) {
		engine, source, _ := newEngineWithThin(t)

		record, err := engine.Experiment(accession)
		require.NoError(t, err)
		require.NoError(t, record.EnsureComplete())
		require.NoError(t, record.EnsureComplete())
		require.NoError(t, record.EnsureComplete())

		assert.Equal(t, 1, source.embeddedCalls)
	})

	t.Run("still-thin portal answer does not loop", func(t *testing.T) {
		engine, source, _ := newEngineWithThin(t)
		// The portal keeps serving a thin document.
		source.embedded[accession] = thinDoc(accession)

		record, err := engine.Experiment(accession)
		require.NoError(t, err)

		require.NoError(t, record.EnsureComplete())
		require.NoError(t, record.EnsureComplete())
		assert.False(t, record.IsComplete())
		assert.Equal(t, 1, source.embeddedCalls)
	})

	t.Run("replacing the raw payload resets the generation", func(t *testing.T) {
		engine, source, _ := newEngineWithThin(t)
		source.embedded[accession] = thinDoc(accession)

		record, err := engine.Experiment(accession)
		require.NoError(t, err)
		require.NoError(t, record.EnsureComplete())
		require.Equal(t, 1, source.embeddedCalls)

		record.SetRaw(thinDoc(accession))
		require.NoError(t, record.EnsureComplete())
		assert.Equal(t, 2, source.embeddedCalls)
	})

	t.Run("record without accession is rejected", func(t *testing.T) {
		engine := NewEngine(newFakeSource(), memoryCache.New(), memoryCache.New())
		doc := thinDoc("ENCSR000AAA")
		delete(doc, "accession")
		record, err := engine.ExperimentFromRaw(doc)
		require.NoError(t, err)

		var validation *ValidationError
		assert.ErrorAs(t, record.EnsureComplete(), &validation)
	})
}
