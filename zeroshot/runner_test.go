package zeroshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePreprocessor produces batches without touching the filesystem.
type fakePreprocessor struct{}

func (fakePreprocessor) PrepareImages(paths []string) (*ImageBatch, error) {
	return &ImageBatch{N: len(paths), C: 3, H: 2, W: 2}, nil
}

func (fakePreprocessor) PrepareText(prompts []string) (*TextBatch, error) {
	return &TextBatch{N: len(prompts), L: 4}, nil
}

// fakeModel predicts class k%N for the k-th image of every batch and emits
// embeddings whose first component counts images seen so far.
type fakeModel struct {
	dim       int
	seen      int
	logitsErr error
}

func (m *fakeModel) LogitsPerImage(_ context.Context, images *ImageBatch, text *TextBatch) ([][]float32, error) {
	if m.logitsErr != nil {
		return nil, m.logitsErr
	}
	out := make([][]float32, images.N)
	for k := range out {
		row := make([]float32, text.N)
		row[k%text.N] = 5
		out[k] = row
	}
	return out, nil
}

func (m *fakeModel) ImageFeatures(_ context.Context, images *ImageBatch) ([][]float32, error) {
	out := make([][]float32, images.N)
	for k := range out {
		row := make([]float32, m.dim)
		row[0] = float32(m.seen)
		m.seen++
		out[k] = row
	}
	return out, nil
}

func (m *fakeModel) Close() error { return nil }

func scenarioClassMap() *ClassMap {
	cm := NewClassMap()
	cm.Add("Downdog", []string{"d1.jpg", "d2.jpg"})
	cm.Add("Tree", []string{"t1.jpg"})
	return cm
}

func TestClassifyScenario(t *testing.T) {
	cm := scenarioClassMap()
	prompts := []string{"a downdog yoga pose", "a tree yoga pose"}

	predictions, groundTruth, err := Classify(context.Background(), &fakeModel{dim: 4}, fakePreprocessor{}, cm, prompts)
	require.NoError(t, err)

	require.Equal(t, []int{0, 0, 1}, groundTruth)
	require.Len(t, predictions, 3)
	for _, p := range predictions {
		require.GreaterOrEqual(t, p, 0)
		require.Less(t, p, len(prompts))
	}
	// The fake model's prediction pattern is deterministic per batch.
	require.Equal(t, []int{0, 1, 0}, predictions)
}

func TestClassifyRejectsPromptMismatch(t *testing.T) {
	cm := scenarioClassMap()
	_, _, err := Classify(context.Background(), &fakeModel{dim: 4}, fakePreprocessor{}, cm,
		[]string{"only one prompt"})
	require.ErrorContains(t, err, "does not match class count")
}

func TestClassifyPropagatesModelErrors(t *testing.T) {
	cm := scenarioClassMap()
	sentinel := errors.New("device unavailable")
	_, _, err := Classify(context.Background(), &fakeModel{logitsErr: sentinel}, fakePreprocessor{}, cm,
		[]string{"a", "b"})
	require.ErrorIs(t, err, sentinel)
}

func TestEmbedStacksInEncounterOrder(t *testing.T) {
	cm := scenarioClassMap()

	embeddings, groundTruth, err := Embed(context.Background(), &fakeModel{dim: 4}, fakePreprocessor{}, cm)
	require.NoError(t, err)

	require.Equal(t, cm.TotalFiles(), embeddings.Rows)
	require.Equal(t, 4, embeddings.Cols)
	require.Equal(t, []int{0, 0, 1}, groundTruth)
	require.Len(t, groundTruth, embeddings.Rows)
	for k := 0; k < embeddings.Rows; k++ {
		require.Equal(t, float32(k), embeddings.Row(k)[0])
	}
}

func TestAccuracy(t *testing.T) {
	require.Equal(t, 0.5, Accuracy([]int{0, 1}, []int{0, 0}))
	require.Zero(t, Accuracy(nil, nil))
	require.Zero(t, Accuracy([]int{0}, []int{0, 1}))
}
