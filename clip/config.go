// Package clip implements the multimodal model capability on top of ONNX
// Runtime, using exported CLIP image and text encoders plus the matching
// HuggingFace tokenizer file.
package clip

// Supported compute devices.
const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Config locates the runtime, the exported encoders and the tokenizer, and
// binds the compute device the sessions run on.
type Config struct {
	// OrtLibrary is the path to the onnxruntime shared library. Empty uses
	// the platform default lookup.
	OrtLibrary string `json:"ortLibrary"`
	// ImageModelPath is the exported image encoder (pixel_values -> image_embeds).
	ImageModelPath string `json:"imageModelPath"`
	// TextModelPath is the exported text encoder (input_ids, attention_mask -> text_embeds).
	TextModelPath string `json:"textModelPath"`
	// TokenizerPath is the HuggingFace tokenizer.json paired with the model.
	TokenizerPath string `json:"tokenizerPath"`
	Device        string `json:"device"`
	DeviceID      int    `json:"deviceId"`
	// ImageSize is the square input resolution the image encoder expects.
	ImageSize int `json:"imageSize"`
	// MaxSeqLen is the fixed token sequence length of the text encoder.
	MaxSeqLen int `json:"maxSeqLen"`
	// EmbedDim is the embedding dimensionality of both encoders.
	EmbedDim int `json:"embedDim"`
	// LogitScale multiplies the cosine similarities, matching the trained
	// temperature of the model.
	LogitScale float32 `json:"logitScale"`
}

// ApplyDefaults populates zero values with the standard CLIP ViT-B/32 setup.
func (c *Config) ApplyDefaults() {
	if c.Device == "" {
		c.Device = DeviceCPU
	}
	if c.ImageSize == 0 {
		c.ImageSize = 224
	}
	if c.MaxSeqLen == 0 {
		c.MaxSeqLen = 77
	}
	if c.EmbedDim == 0 {
		c.EmbedDim = 512
	}
	if c.LogitScale == 0 {
		c.LogitScale = 100.0
	}
}
