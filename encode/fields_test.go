package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetLabels(t *testing.T) {
	tests := []struct {
		name  string
		field any
		want  []string
	}{
		{
			name:  "absent",
			field: nil,
			want:  []string{},
		},
		{
			name:  "empty object",
			field: map[string]any{},
			want:  []string{},
		},
		{
			name:  "single object",
			field: map[string]any{"label": "CTCF"},
			want:  []string{"CTCF"},
		},
		{
			name:  "object with empty label",
			field: map[string]any{"label": ""},
			want:  []string{},
		},
		{
			name: "mixed list skips labelless entries",
			field: []any{
				map[string]any{"label": "CTCF"},
				map[string]any{"label": ""},
				"H3K4me3",
			},
			want: []string{"CTCF", "H3K4me3"},
		},
		{
			name:  "plain string",
			field: "POLR2A",
			want:  []string{"POLR2A"},
		},
		{
			name:  "empty string",
			field: "",
			want:  []string{},
		},
		{
			name:  "unexpected scalar",
			field: 42.0,
			want:  []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TargetLabels(tc.field))
		})
	}
}

func TestOrganismName(t *testing.T) {
	t.Run("resolves through the replicate chain", func(t *testing.T) {
		name, ok := OrganismName(thinDoc("ENCSR000AAA"))
		assert.True(t, ok)
		assert.Equal(t, "Homo sapiens", name)
	})

	t.Run("first replicate with a full chain wins", func(t *testing.T) {
		doc := map[string]any{
			"replicates": []any{
				map[string]any{"library": map[string]any{}},
				map[string]any{
					"library": map[string]any{
						"biosample": map[string]any{
							"organism": map[string]any{"scientific_name": "Mus musculus"},
						},
					},
				},
			},
		}
		name, ok := OrganismName(doc)
		assert.True(t, ok)
		assert.Equal(t, "Mus musculus", name)
	})

	t.Run("broken chain reports absent", func(t *testing.T) {
		doc := map[string]any{
			"replicates": []any{
				map[string]any{
					"library": map[string]any{
						"biosample": map[string]any{},
					},
				},
			},
		}
		name, ok := OrganismName(doc)
		assert.False(t, ok)
		assert.Empty(t, name)
	})

	t.Run("no replicates reports absent", func(t *testing.T) {
		_, ok := OrganismName(map[string]any{})
		assert.False(t, ok)
	})
}
