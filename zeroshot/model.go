package zeroshot

import "context"

// ImageBatch is a preprocessed batch of images in NCHW float32 layout, ready
// for the model's image input.
type ImageBatch struct {
	Data []float32
	N    int
	C    int
	H    int
	W    int
}

// TextBatch is a tokenized prompt batch padded to a fixed sequence length.
type TextBatch struct {
	IDs  []int64
	Mask []int64
	N    int
	L    int
}

// Preprocessor turns raw files and prompt strings into the tensor layout the
// model expects, mirroring the paired processor that ships with the model.
type Preprocessor interface {
	PrepareImages(paths []string) (*ImageBatch, error)
	PrepareText(prompts []string) (*TextBatch, error)
}

// Model is the pretrained multimodal capability: a joint image+text pass
// yielding per-pair similarity scores and an image-only pass yielding a
// fixed-length embedding per image. Implementations are evaluation-only;
// nothing in this interface can mutate model parameters. The compute device
// is bound when the implementation is constructed.
type Model interface {
	// LogitsPerImage returns one row per image and one column per prompt.
	LogitsPerImage(ctx context.Context, images *ImageBatch, text *TextBatch) ([][]float32, error)
	// ImageFeatures returns one fixed-length embedding row per image.
	ImageFeatures(ctx context.Context, images *ImageBatch) ([][]float32, error)
	Close() error
}
