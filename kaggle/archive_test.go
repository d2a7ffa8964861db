package kaggle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractZipRejectsPathTraversal(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"../escape.txt": "nope",
	})
	dir := t.TempDir()
	src := filepath.Join(dir, "a.zip")
	require.NoError(t, os.WriteFile(src, archive, 0o644))

	err := extractZip(src, filepath.Join(dir, "out"))
	require.ErrorContains(t, err, "escapes destination")
	require.NoFileExists(t, filepath.Join(dir, "escape.txt"))
}

func TestSafeJoinCleansDestination(t *testing.T) {
	// A trailing separator on dest must not trip the guard for entries
	// that resolve to the destination itself.
	dest := t.TempDir() + string(filepath.Separator)
	path, err := safeJoin(dest, ".")
	require.NoError(t, err)
	require.Equal(t, filepath.Clean(dest), path)

	path, err = safeJoin(dest, "a/b.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(filepath.Clean(dest), "a", "b.txt"), path)

	_, err = safeJoin(dest, "../escape.txt")
	require.ErrorContains(t, err, "escapes destination")
}

func TestExtractZipRestoresDirectories(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"a/b/c.txt": "deep",
		"top.txt":   "shallow",
	})
	dir := t.TempDir()
	src := filepath.Join(dir, "a.zip")
	require.NoError(t, os.WriteFile(src, archive, 0o644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, extractZip(src, dest))

	data, err := os.ReadFile(filepath.Join(dest, "a", "b", "c.txt"))
	require.NoError(t, err)
	require.Equal(t, "deep", string(data))
	require.FileExists(t, filepath.Join(dest, "top.txt"))
}
