package zeroshot

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayoutKind tags the directory shape a dataset archive extracts into.
type LayoutKind string

const (
	// LayoutClean means class folders already sit at the expected location.
	LayoutClean LayoutKind = "clean"
	// LayoutWrapped means class folders are nested under a wrapper directory
	// named after the archive.
	LayoutWrapped LayoutKind = "wrapped"
	// LayoutVariantSuffixed means per-variant folders encode
	// "<class>_<variant>" instead of a clean class hierarchy.
	LayoutVariantSuffixed LayoutKind = "variant-suffixed"
)

// LayoutRule describes how to repair a freshly extracted dataset.
type LayoutRule struct {
	Kind LayoutKind `yaml:"kind" json:"kind"`
	// Wrapper is the directory the repair keys on: for LayoutWrapped the
	// folder whose children are moved to the top level, for
	// LayoutVariantSuffixed the archive root holding the split directories.
	// The repair is a no-op when the wrapper no longer exists.
	Wrapper string `yaml:"wrapper,omitempty" json:"wrapper,omitempty"`
	// Splits lists the split directories under the wrapper whose variant
	// folders get merged (LayoutVariantSuffixed only).
	Splits []string `yaml:"splits,omitempty" json:"splits,omitempty"`
}

// DatasetConfig names a dataset source and how to normalize it. One value
// per dataset; callers pass it explicitly instead of relying on shared
// package state.
type DatasetConfig struct {
	// Name is the directory under the data root holding this dataset.
	Name string `yaml:"name" json:"name"`
	// Ref is the Kaggle "owner/dataset" reference used for download.
	Ref string `yaml:"ref" json:"ref"`
	// Classes is the expected class list; its order defines label indices.
	Classes []string `yaml:"classes" json:"classes"`
	// Extension is the image file extension without the dot, e.g. "jpg".
	Extension string `yaml:"extension" json:"extension"`
	// Recursive enables nested enumeration inside class folders.
	Recursive bool `yaml:"recursive,omitempty" json:"recursive,omitempty"`
	// SplitPath locates a split below the dataset directory; the literal
	// "{split}" is replaced with the requested split name. Empty for
	// datasets without train/validation/test splits.
	SplitPath string `yaml:"splitPath,omitempty" json:"splitPath,omitempty"`
	// Layout selects the repair applied after download.
	Layout LayoutRule `yaml:"layout,omitempty" json:"layout,omitempty"`
	// PromptTemplate builds a default prompt per class; the literal
	// "{class}" is replaced with the class name.
	PromptTemplate string `yaml:"promptTemplate,omitempty" json:"promptTemplate,omitempty"`
}

// Validate reports the first structural problem with the configuration.
func (c DatasetConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("dataset config: missing name")
	}
	if len(c.Classes) == 0 {
		return fmt.Errorf("dataset %s: empty class list", c.Name)
	}
	if strings.TrimSpace(c.Extension) == "" {
		return fmt.Errorf("dataset %s: missing image extension", c.Name)
	}
	switch c.Layout.Kind {
	case "", LayoutClean:
	case LayoutWrapped, LayoutVariantSuffixed:
		if c.Layout.Wrapper == "" {
			return fmt.Errorf("dataset %s: layout %s requires a wrapper directory", c.Name, c.Layout.Kind)
		}
	default:
		return fmt.Errorf("dataset %s: unknown layout kind %q", c.Name, c.Layout.Kind)
	}
	return nil
}

// splitDir resolves the relative split directory, empty when the dataset is
// not split.
func (c DatasetConfig) splitDir(split string) (string, error) {
	if c.SplitPath == "" {
		return "", nil
	}
	if split == "" {
		return "", fmt.Errorf("dataset %s: split required", c.Name)
	}
	return strings.ReplaceAll(c.SplitPath, "{split}", split), nil
}

// Prompts renders the prompt template over the class list, one prompt per
// class in label-index order. Falls back to the bare class name when no
// template is configured.
func (c DatasetConfig) Prompts() []string {
	prompts := make([]string, len(c.Classes))
	for i, class := range c.Classes {
		if c.PromptTemplate == "" {
			prompts[i] = class
			continue
		}
		prompts[i] = strings.ReplaceAll(c.PromptTemplate, "{class}", class)
	}
	return prompts
}

// LoadDatasetFile reads additional dataset configurations from a YAML file
// keyed by dataset name.
func LoadDatasetFile(path string) (map[string]DatasetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}
	var raw struct {
		Datasets []DatasetConfig `yaml:"datasets"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dataset file: %w", err)
	}
	out := make(map[string]DatasetConfig, len(raw.Datasets))
	for _, cfg := range raw.Datasets {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, ok := out[cfg.Name]; ok {
			return nil, fmt.Errorf("dataset file: duplicate dataset %s", cfg.Name)
		}
		out[cfg.Name] = cfg
	}
	return out, nil
}
