package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"render-graph/gpu"
)

// Texture holds CPU-side RGBA8 pixels (row-major, top-to-bottom) and,
// once uploaded, the GPU handle.
type Texture struct {
	Name   string
	Width  int
	Height int
	Pixels []byte

	handle gpu.Texture
}

// Handle returns the GPU texture, or 0 before Upload.
func (t *Texture) Handle() gpu.Texture { return t.handle }

// Upload creates the GPU texture on first use and returns it.
func (t *Texture) Upload(ctx gpu.Context) gpu.Texture {
	if t.handle == 0 {
		t.handle = ctx.CreateTexture(t.Width, t.Height, t.Pixels)
	}
	return t.handle
}

// Release deletes the GPU texture. The pixels are kept so it can be
// uploaded again.
func (t *Texture) Release(ctx gpu.Context) {
	if t.handle != 0 {
		ctx.DeleteTexture(t.handle)
		t.handle = 0
	}
}

// LoadTexture reads a PNG, JPEG, BMP, TIFF or WebP file. Images larger than
// maxSize on either side are downscaled; maxSize <= 0 disables scaling.
func LoadTexture(path string, maxSize int) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	tex, err := DecodeTexture(path, f, maxSize)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return tex, nil
}

// DecodeTexture decodes any registered image format into an RGBA8 Texture.
func DecodeTexture(name string, r io.Reader, maxSize int) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	src := img.Bounds()
	w, h := fitSize(src.Dx(), src.Dy(), maxSize)
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, src.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, src, draw.Src, nil)
	}

	return &Texture{
		Name:   name,
		Width:  w,
		Height: h,
		Pixels: rgba.Pix,
	}, nil
}

func decodeImageBytes(name string, data []byte, maxSize int) (*Texture, error) {
	return DecodeTexture(name, bytes.NewReader(data), maxSize)
}

// fitSize scales (w, h) down so neither side exceeds limit, keeping the
// aspect ratio.
func fitSize(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// NewSolidTexture creates a 1x1 texture with the given RGBA color values (0–255).
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return &Texture{
		Name:   name,
		Width:  1,
		Height: 1,
		Pixels: []byte{r, g, b, a},
	}
}
