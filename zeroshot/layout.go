package zeroshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// repairLayout restructures a freshly extracted dataset according to its
// layout rule. The repair keys on the wrapper directory and is a no-op when
// the wrapper is already gone, so re-running on a clean tree changes nothing.
func repairLayout(dir string, rule LayoutRule) error {
	switch rule.Kind {
	case "", LayoutClean:
		return nil
	case LayoutWrapped:
		return unwrapClasses(dir, rule.Wrapper)
	case LayoutVariantSuffixed:
		return mergeVariants(dir, rule)
	default:
		return fmt.Errorf("unknown layout kind %q", rule.Kind)
	}
}

// unwrapClasses moves every class directory out of the wrapper to the top of
// the dataset directory and removes the wrapper.
func unwrapClasses(dir, wrapper string) error {
	wrapperDir := filepath.Join(dir, wrapper)
	if _, err := os.Stat(wrapperDir); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat wrapper: %w", err)
	}
	entries, err := os.ReadDir(wrapperDir)
	if err != nil {
		return fmt.Errorf("read wrapper: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		src := filepath.Join(wrapperDir, entry.Name())
		dst := filepath.Join(dir, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("move class folder %s: %w", entry.Name(), err)
		}
	}
	if err := os.RemoveAll(wrapperDir); err != nil {
		return fmt.Errorf("remove wrapper: %w", err)
	}
	return nil
}

// mergeVariants rebuilds "<class>_<variant>" folders into per-class folders
// that keep the variants as subdirectories, one split at a time, then drops
// the archive root.
func mergeVariants(dir string, rule LayoutRule) error {
	archiveRoot := filepath.Join(dir, rule.Wrapper)
	if _, err := os.Stat(archiveRoot); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat archive root: %w", err)
	}
	for _, split := range rule.Splits {
		splitDir := filepath.Join(archiveRoot, split)
		entries, err := os.ReadDir(splitDir)
		if err != nil {
			return fmt.Errorf("read split %s: %w", split, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			class := variantClass(entry.Name())
			dstDir := filepath.Join(dir, split, class)
			if err := os.MkdirAll(dstDir, 0o755); err != nil {
				return fmt.Errorf("create class folder %s: %w", class, err)
			}
			src := filepath.Join(splitDir, entry.Name())
			dst := filepath.Join(dstDir, entry.Name())
			if err := os.Rename(src, dst); err != nil {
				return fmt.Errorf("move variant %s: %w", entry.Name(), err)
			}
		}
	}
	// Drop the outermost archive directory, wrappers and all.
	outer := rule.Wrapper
	if i := strings.IndexRune(outer, filepath.Separator); i > 0 {
		outer = outer[:i]
	}
	if err := os.RemoveAll(filepath.Join(dir, outer)); err != nil {
		return fmt.Errorf("remove archive root: %w", err)
	}
	return nil
}

// variantClass strips the trailing "_<variant>" segment from a folder name.
// A name without an underscore is its own class.
func variantClass(name string) string {
	i := strings.LastIndex(name, "_")
	if i <= 0 {
		return name
	}
	return name[:i]
}
