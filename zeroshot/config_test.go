package zeroshot

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatasetConfigValidate(t *testing.T) {
	cfg := YogaPoses()
	require.NoError(t, cfg.Validate())

	cfg.Classes = nil
	require.ErrorContains(t, cfg.Validate(), "empty class list")

	cfg = YogaPoses()
	cfg.Layout = LayoutRule{Kind: LayoutWrapped}
	require.ErrorContains(t, cfg.Validate(), "wrapper")

	cfg = YogaPoses()
	cfg.Layout.Kind = "spiral"
	require.ErrorContains(t, cfg.Validate(), "unknown layout kind")
}

func TestDatasetConfigPrompts(t *testing.T) {
	cfg := DatasetConfig{
		Classes:        []string{"sea", "forest"},
		PromptTemplate: "a photo of a {class} scene",
	}
	require.Equal(t, []string{"a photo of a sea scene", "a photo of a forest scene"}, cfg.Prompts())

	cfg.PromptTemplate = ""
	require.Equal(t, []string{"sea", "forest"}, cfg.Prompts())
}

func TestBuiltinDatasetsValidate(t *testing.T) {
	builtins := BuiltinDatasets()
	require.Len(t, builtins, 3)
	for name, cfg := range builtins {
		require.NoError(t, cfg.Validate(), name)
		require.Equal(t, name, cfg.Name)
	}
}

func TestFruits360ClassOrderIsSorted(t *testing.T) {
	// Fruits label indices follow alphabetical class order; reordering the
	// list would silently remap every label.
	classes := Fruits360().Classes
	require.True(t, sort.StringsAreSorted(classes), "fruits classes must stay sorted")
	require.Equal(t, "apple", classes[0])
	require.Equal(t, "zucchini_dark", classes[len(classes)-1])
	require.Len(t, classes, 18)
}

func TestLoadDatasetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	content := `datasets:
  - name: flowers
    ref: owner/flowers
    classes: [rose, tulip]
    extension: jpg
    layout:
      kind: wrapped
      wrapper: FlowerPhotos
    promptTemplate: "a photo of a {class}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	datasets, err := LoadDatasetFile(path)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	cfg := datasets["flowers"]
	require.Equal(t, "owner/flowers", cfg.Ref)
	require.Equal(t, LayoutWrapped, cfg.Layout.Kind)
	require.Equal(t, []string{"a photo of a rose", "a photo of a tulip"}, cfg.Prompts())
}

func TestLoadDatasetFileRejectsDuplicatesAndInvalid(t *testing.T) {
	dir := t.TempDir()

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte(`datasets:
  - {name: a, ref: o/a, classes: [x], extension: jpg}
  - {name: a, ref: o/a, classes: [x], extension: jpg}
`), 0o644))
	_, err := LoadDatasetFile(dup)
	require.ErrorContains(t, err, "duplicate")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte(`datasets:
  - {name: b, ref: o/b, classes: [], extension: jpg}
`), 0o644))
	_, err = LoadDatasetFile(invalid)
	require.ErrorContains(t, err, "empty class list")
}
