package clip

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"golang.org/x/image/draw"
	"golang.org/x/text/unicode/norm"

	"zeroshot/zeroshot"
)

// Per-channel normalization constants the CLIP image pipeline was trained
// with.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Preprocessor converts image files and prompt strings into the tensor
// layout the encoders expect. Token ids are cached per prompt since prompt
// sets repeat across classes and runs.
type Preprocessor struct {
	tk        *tokenizer.Tokenizer
	imageSize int
	maxSeqLen int
	tokens    *gocache.Cache
}

// NewPreprocessor loads the tokenizer named by the configuration.
func NewPreprocessor(cfg Config) (*Preprocessor, error) {
	cfg.ApplyDefaults()
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &Preprocessor{
		tk:        tk,
		imageSize: cfg.ImageSize,
		maxSeqLen: cfg.MaxSeqLen,
		tokens:    gocache.New(gocache.NoExpiration, 0),
	}, nil
}

// PrepareImages decodes, resizes and normalizes the given files into one
// NCHW batch. A file that fails to decode aborts the whole batch.
func (p *Preprocessor) PrepareImages(paths []string) (*zeroshot.ImageBatch, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("empty image batch")
	}
	size := p.imageSize
	plane := size * size
	data := make([]float32, len(paths)*3*plane)
	for i, path := range paths {
		img, err := loadImage(path)
		if err != nil {
			return nil, err
		}
		resized := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Src, nil)
		base := i * 3 * plane
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				c := resized.RGBAAt(x, y)
				for ch, v := range [3]uint8{c.R, c.G, c.B} {
					data[base+ch*plane+y*size+x] = (float32(v)/255.0 - clipMean[ch]) / clipStd[ch]
				}
			}
		}
	}
	return &zeroshot.ImageBatch{Data: data, N: len(paths), C: 3, H: size, W: size}, nil
}

// PrepareText tokenizes the prompts and pads them to the fixed sequence
// length.
func (p *Preprocessor) PrepareText(prompts []string) (*zeroshot.TextBatch, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("empty prompt set")
	}
	batch := &zeroshot.TextBatch{
		IDs:  make([]int64, len(prompts)*p.maxSeqLen),
		Mask: make([]int64, len(prompts)*p.maxSeqLen),
		N:    len(prompts),
		L:    p.maxSeqLen,
	}
	for i, prompt := range prompts {
		ids, err := p.tokenize(norm.NFKC.String(prompt))
		if err != nil {
			return nil, fmt.Errorf("tokenize %q: %w", prompt, err)
		}
		ids = fitToSeqLen(ids, p.maxSeqLen)
		base := i * p.maxSeqLen
		for j, id := range ids {
			batch.IDs[base+j] = int64(id)
			batch.Mask[base+j] = 1
		}
	}
	return batch, nil
}

// fitToSeqLen truncates an over-length token sequence while keeping the
// trailing end-of-text token; the text encoder pools at that position, so
// dropping it would embed garbage.
func fitToSeqLen(ids []int, maxLen int) []int {
	if len(ids) <= maxLen {
		return ids
	}
	out := make([]int, maxLen)
	copy(out, ids[:maxLen-1])
	out[maxLen-1] = ids[len(ids)-1]
	return out
}

func (p *Preprocessor) tokenize(prompt string) ([]int, error) {
	if cached, ok := p.tokens.Get(prompt); ok {
		return cached.([]int), nil
	}
	en, err := p.tk.EncodeSingle(prompt, true)
	if err != nil {
		return nil, err
	}
	ids := append([]int(nil), en.Ids...)
	p.tokens.Set(prompt, ids, gocache.NoExpiration)
	return ids, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}
