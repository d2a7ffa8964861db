package zeroshot

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Downloader fetches a dataset archive and extracts it into dest. A
// credential problem must surface as an error distinguishable from plain
// I/O failures (see the kaggle package).
type Downloader interface {
	Download(ctx context.Context, ref, dest string) error
}

// MissingClassError signals that a configured class folder is absent after
// download and repair, which means the staged data does not match the
// expected dataset schema. Not retryable.
type MissingClassError struct {
	Dataset string
	Class   string
}

func (e *MissingClassError) Error() string {
	return fmt.Sprintf("dataset %s: missing class %s", e.Dataset, e.Class)
}

// Normalizer stages Kaggle datasets under a local data root and turns them
// into ClassMaps. It holds no per-dataset state; every Normalize call
// re-checks the storage location and skips download and repair work that was
// already done.
type Normalizer struct {
	root       string
	downloader Downloader
	logger     *log.Logger
}

// NewNormalizer builds a Normalizer rooted at the given data directory.
// The logger may be nil.
func NewNormalizer(root string, downloader Downloader, logger *log.Logger) *Normalizer {
	return &Normalizer{root: root, downloader: downloader, logger: logger}
}

// Normalize ensures the dataset's images exist on disk in a uniform
// class-per-folder layout and returns the class-to-files mapping. The split
// argument selects a subset for split datasets and must be empty otherwise.
func (n *Normalizer) Normalize(ctx context.Context, cfg DatasetConfig, split string) (*ClassMap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	splitDir, err := cfg.splitDir(split)
	if err != nil {
		return nil, err
	}
	dataDir := filepath.Join(n.root, cfg.Name)
	n.logf("Checking for %s data in %s", cfg.Name, dataDir)

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		if n.downloader == nil {
			return nil, fmt.Errorf("dataset %s: not staged and no downloader configured", cfg.Name)
		}
		if err := n.downloader.Download(ctx, cfg.Ref, dataDir); err != nil {
			// Credential failures have no automated remedy; annotate with
			// the operator action and surface the original error.
			return nil, fmt.Errorf("download %s (set KAGGLE_USERNAME/KAGGLE_KEY or create ~/.kaggle/kaggle.json): %w", cfg.Ref, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dataDir, err)
	}

	if err := repairLayout(dataDir, cfg.Layout); err != nil {
		return nil, fmt.Errorf("repair %s layout: %w", cfg.Name, err)
	}

	classMap := NewClassMap()
	for _, class := range cfg.Classes {
		classDir := filepath.Join(dataDir, splitDir, class)
		if _, err := os.Stat(classDir); os.IsNotExist(err) {
			return nil, &MissingClassError{Dataset: cfg.Name, Class: class}
		} else if err != nil {
			return nil, fmt.Errorf("stat class %s: %w", class, err)
		}
		files, err := listImages(classDir, cfg.Extension, cfg.Recursive)
		if err != nil {
			return nil, fmt.Errorf("list class %s: %w", class, err)
		}
		if len(files) == 0 {
			return nil, &MissingClassError{Dataset: cfg.Name, Class: class}
		}
		n.logf("Got %d files for class %s", len(files), class)
		classMap.Add(class, files)
	}
	return classMap, nil
}

// listImages enumerates image files below dir in sorted order so label
// alignment is reproducible across platforms.
func listImages(dir, extension string, recursive bool) ([]string, error) {
	suffix := "." + strings.ToLower(extension)
	var files []string
	if recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), suffix) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), suffix) {
				continue
			}
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (n *Normalizer) logf(format string, args ...any) {
	if n.logger != nil {
		n.logger.Printf(format, args...)
	}
}
