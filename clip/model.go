package clip

import (
	"context"
	"fmt"
	"math"
	"strconv"

	ort "github.com/yalue/onnxruntime_go"

	"zeroshot/zeroshot"
)

// Encoder input/output names as produced by the standard CLIP ONNX export.
const (
	imageInputName  = "pixel_values"
	imageOutputName = "image_embeds"
	textIDsName     = "input_ids"
	textMaskName    = "attention_mask"
	textOutputName  = "text_embeds"
)

// Model runs the exported CLIP encoders through ONNX Runtime. It is
// evaluation-only; sessions are bound to the configured device at
// construction and never mutated afterwards.
type Model struct {
	cfg          Config
	imageSession *ort.DynamicAdvancedSession
	textSession  *ort.DynamicAdvancedSession
	ownsEnv      bool
}

// NewModel initializes the runtime environment and creates one session per
// encoder.
func NewModel(cfg Config) (*Model, error) {
	cfg.ApplyDefaults()
	if cfg.ImageModelPath == "" || cfg.TextModelPath == "" {
		return nil, fmt.Errorf("image and text model paths are required")
	}
	m := &Model{cfg: cfg}
	if !ort.IsInitialized() {
		if cfg.OrtLibrary != "" {
			ort.SetSharedLibraryPath(cfg.OrtLibrary)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
		m.ownsEnv = true
	}
	opts, err := newSessionOptions(cfg)
	if err != nil {
		m.Close()
		return nil, err
	}
	defer opts.Destroy()
	m.imageSession, err = ort.NewDynamicAdvancedSession(cfg.ImageModelPath,
		[]string{imageInputName}, []string{imageOutputName}, opts)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("load image encoder: %w", err)
	}
	m.textSession, err = ort.NewDynamicAdvancedSession(cfg.TextModelPath,
		[]string{textIDsName, textMaskName}, []string{textOutputName}, opts)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("load text encoder: %w", err)
	}
	return m, nil
}

func newSessionOptions(cfg Config) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	switch cfg.Device {
	case DeviceCPU:
	case DeviceCUDA:
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("cuda provider: %w", err)
		}
		defer cudaOpts.Destroy()
		if err := cudaOpts.Update(map[string]string{"device_id": strconv.Itoa(cfg.DeviceID)}); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("cuda device %d: %w", cfg.DeviceID, err)
		}
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("enable cuda: %w", err)
		}
	default:
		opts.Destroy()
		return nil, fmt.Errorf("unsupported device %q", cfg.Device)
	}
	return opts, nil
}

// Close releases the sessions and, when this model initialized it, the
// runtime environment.
func (m *Model) Close() error {
	if m.imageSession != nil {
		m.imageSession.Destroy()
		m.imageSession = nil
	}
	if m.textSession != nil {
		m.textSession.Destroy()
		m.textSession = nil
	}
	if m.ownsEnv {
		m.ownsEnv = false
		return ort.DestroyEnvironment()
	}
	return nil
}

// ImageFeatures runs the image encoder over the batch and returns one
// embedding row per image.
func (m *Model) ImageFeatures(_ context.Context, images *zeroshot.ImageBatch) ([][]float32, error) {
	input, err := ort.NewTensor(ort.NewShape(int64(images.N), int64(images.C), int64(images.H), int64(images.W)), images.Data)
	if err != nil {
		return nil, fmt.Errorf("image tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(images.N), int64(m.cfg.EmbedDim)))
	if err != nil {
		return nil, fmt.Errorf("image output tensor: %w", err)
	}
	defer output.Destroy()
	if err := m.imageSession.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("image encoder: %w", err)
	}
	return copyRows(output.GetData(), images.N, m.cfg.EmbedDim), nil
}

// TextFeatures runs the text encoder over the prompt batch.
func (m *Model) TextFeatures(_ context.Context, text *zeroshot.TextBatch) ([][]float32, error) {
	shape := ort.NewShape(int64(text.N), int64(text.L))
	ids, err := ort.NewTensor(shape, text.IDs)
	if err != nil {
		return nil, fmt.Errorf("ids tensor: %w", err)
	}
	defer ids.Destroy()
	mask, err := ort.NewTensor(shape, text.Mask)
	if err != nil {
		return nil, fmt.Errorf("mask tensor: %w", err)
	}
	defer mask.Destroy()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(text.N), int64(m.cfg.EmbedDim)))
	if err != nil {
		return nil, fmt.Errorf("text output tensor: %w", err)
	}
	defer output.Destroy()
	if err := m.textSession.Run([]ort.Value{ids, mask}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("text encoder: %w", err)
	}
	return copyRows(output.GetData(), text.N, m.cfg.EmbedDim), nil
}

// LogitsPerImage produces the image-by-prompt similarity score matrix:
// scaled dot products of the L2-normalized embeddings, one row per image.
func (m *Model) LogitsPerImage(ctx context.Context, images *zeroshot.ImageBatch, text *zeroshot.TextBatch) ([][]float32, error) {
	imageEmbeds, err := m.ImageFeatures(ctx, images)
	if err != nil {
		return nil, err
	}
	textEmbeds, err := m.TextFeatures(ctx, text)
	if err != nil {
		return nil, err
	}
	for _, row := range imageEmbeds {
		l2Normalize(row)
	}
	for _, row := range textEmbeds {
		l2Normalize(row)
	}
	logits := make([][]float32, len(imageEmbeds))
	for i, img := range imageEmbeds {
		row := make([]float32, len(textEmbeds))
		for j, txt := range textEmbeds {
			row[j] = m.cfg.LogitScale * dot(img, txt)
		}
		logits[i] = row
	}
	return logits, nil
}

func copyRows(data []float32, rows, cols int) [][]float32 {
	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		out[i] = append([]float32(nil), data[i*cols:(i+1)*cols]...)
	}
	return out
}

func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
