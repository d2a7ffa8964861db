package zeroshot

import (
	"context"
	"fmt"
)

// Matrix is a contiguous row-major 2-D float32 buffer.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// Row returns a view of row i.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Classify runs every image in the class map against the prompt set and
// returns predicted class indices alongside ground-truth indices.
// predictions[k] and groundTruth[k] refer to the same image; output order is
// fully determined by class order and the sorted within-class file order.
//
// The prompt set must be positionally aligned with the class map: prompt i
// describes class i. A length mismatch would silently mislabel every image,
// so it is rejected up front.
func Classify(ctx context.Context, model Model, pre Preprocessor, classMap *ClassMap, prompts []string) (predictions, groundTruth []int, err error) {
	if len(prompts) != classMap.Len() {
		return nil, nil, fmt.Errorf("prompt count %d does not match class count %d", len(prompts), classMap.Len())
	}
	text, err := pre.PrepareText(prompts)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare prompts: %w", err)
	}
	for i, class := range classMap.Classes() {
		files := classMap.Files(class)
		images, err := pre.PrepareImages(files)
		if err != nil {
			return nil, nil, fmt.Errorf("prepare class %s: %w", class, err)
		}
		logits, err := model.LogitsPerImage(ctx, images, text)
		if err != nil {
			return nil, nil, fmt.Errorf("class %s forward pass: %w", class, err)
		}
		for _, row := range logits {
			probs := softmax(row)
			predictions = append(predictions, argmax(probs))
			groundTruth = append(groundTruth, i)
		}
	}
	return predictions, groundTruth, nil
}

// Embed extracts one embedding vector per image across the whole class map.
// Rows are stacked in encounter order; groundTruth[k] is the class index
// that contributed row k.
func Embed(ctx context.Context, model Model, pre Preprocessor, classMap *ClassMap) (*Matrix, []int, error) {
	var (
		embeddings  *Matrix
		groundTruth []int
	)
	for i, class := range classMap.Classes() {
		files := classMap.Files(class)
		images, err := pre.PrepareImages(files)
		if err != nil {
			return nil, nil, fmt.Errorf("prepare class %s: %w", class, err)
		}
		features, err := model.ImageFeatures(ctx, images)
		if err != nil {
			return nil, nil, fmt.Errorf("class %s feature pass: %w", class, err)
		}
		for _, row := range features {
			if embeddings == nil {
				embeddings = &Matrix{Cols: len(row)}
			}
			if len(row) != embeddings.Cols {
				return nil, nil, fmt.Errorf("class %s: embedding dimension %d, want %d", class, len(row), embeddings.Cols)
			}
			embeddings.Data = append(embeddings.Data, row...)
			embeddings.Rows++
			groundTruth = append(groundTruth, i)
		}
	}
	if embeddings == nil {
		embeddings = &Matrix{}
	}
	return embeddings, groundTruth, nil
}

// Accuracy is the fraction of predictions matching their ground truth.
func Accuracy(predictions, groundTruth []int) float64 {
	if len(predictions) == 0 || len(predictions) != len(groundTruth) {
		return 0
	}
	correct := 0
	for i, p := range predictions {
		if p == groundTruth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predictions))
}
