package zeroshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatrixRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.bin")
	m := &Matrix{Rows: 2, Cols: 3, Data: []float32{1, 2, 3, 4, 5, 6}}

	require.NoError(t, WriteMatrix(path, m))
	got, err := ReadMatrix(path)
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.Equal(t, []float32{4, 5, 6}, got.Row(1))
}

func TestReadMatrixRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
	_, err := ReadMatrix(path)
	require.ErrorContains(t, err, "too small")

	require.NoError(t, os.WriteFile(path, []byte{2, 0, 0, 0, 3, 0, 0, 0, 9}, 0o644))
	_, err = ReadMatrix(path)
	require.ErrorContains(t, err, "length mismatch")
}
