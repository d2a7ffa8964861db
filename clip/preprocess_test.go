package clip

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, c color.RGBA, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// testPreprocessor skips tokenizer loading; image preprocessing does not
// need it.
func testPreprocessor() *Preprocessor {
	cfg := Config{}
	cfg.ApplyDefaults()
	return &Preprocessor{imageSize: cfg.ImageSize, maxSeqLen: cfg.MaxSeqLen}
}

func TestPrepareImagesShapeAndNormalization(t *testing.T) {
	dir := t.TempDir()
	red := filepath.Join(dir, "red.png")
	writePNG(t, red, color.RGBA{R: 255, A: 255}, 64, 48)

	p := testPreprocessor()
	batch, err := p.PrepareImages([]string{red})
	require.NoError(t, err)

	require.Equal(t, 1, batch.N)
	require.Equal(t, 3, batch.C)
	require.Equal(t, 224, batch.H)
	require.Equal(t, 224, batch.W)
	require.Len(t, batch.Data, 3*224*224)

	// A uniform red image stays uniform after resizing, so every location
	// carries the normalized channel value.
	plane := 224 * 224
	require.InDelta(t, (1.0-clipMean[0])/clipStd[0], batch.Data[0], 0.02)
	require.InDelta(t, (0.0-clipMean[1])/clipStd[1], batch.Data[plane], 0.02)
	require.InDelta(t, (0.0-clipMean[2])/clipStd[2], batch.Data[2*plane], 0.02)
}

func TestPrepareImagesBatchLayout(t *testing.T) {
	dir := t.TempDir()
	red := filepath.Join(dir, "red.png")
	blue := filepath.Join(dir, "blue.png")
	writePNG(t, red, color.RGBA{R: 255, A: 255}, 32, 32)
	writePNG(t, blue, color.RGBA{B: 255, A: 255}, 32, 32)

	p := testPreprocessor()
	batch, err := p.PrepareImages([]string{red, blue})
	require.NoError(t, err)

	require.Equal(t, 2, batch.N)
	plane := 224 * 224
	// Second image starts after the first image's three planes.
	require.InDelta(t, (0.0-clipMean[0])/clipStd[0], batch.Data[3*plane], 0.02)
	require.InDelta(t, (1.0-clipMean[2])/clipStd[2], batch.Data[3*plane+2*plane], 0.02)
}

func TestPrepareImagesDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0o644))

	p := testPreprocessor()
	_, err := p.PrepareImages([]string{broken})
	require.ErrorContains(t, err, "decode image")
}

func TestPrepareImagesEmptyBatch(t *testing.T) {
	p := testPreprocessor()
	_, err := p.PrepareImages(nil)
	require.ErrorContains(t, err, "empty image batch")
}

func TestFitToSeqLenKeepsEndOfText(t *testing.T) {
	// 49407 is the CLIP end-of-text id; it must survive truncation.
	ids := []int{49406, 1, 2, 3, 4, 49407}
	require.Equal(t, []int{49406, 1, 2, 49407}, fitToSeqLen(ids, 4))

	short := []int{49406, 1, 49407}
	require.Equal(t, short, fitToSeqLen(short, 4))

	// Truncation returns a fresh slice so cached token ids stay intact.
	got := fitToSeqLen(ids, 4)
	got[0] = 0
	require.Equal(t, 49406, ids[0])
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	require.Equal(t, DeviceCPU, cfg.Device)
	require.Equal(t, 224, cfg.ImageSize)
	require.Equal(t, 77, cfg.MaxSeqLen)
	require.Equal(t, 512, cfg.EmbedDim)
	require.Equal(t, float32(100.0), cfg.LogitScale)
}
