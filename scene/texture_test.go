package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"

	"render-graph/gpu/gputest"
)

func encodeCheckerboard(t *testing.T, w, h int, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.NRGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.NRGBA{0, 0, 255, 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeTexturePNG(t *testing.T) {
	data := encodeCheckerboard(t, 4, 2, func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) })
	tex, err := DecodeTexture("checker", bytes.NewReader(data), 0)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Width != 4 || tex.Height != 2 || len(tex.Pixels) != 4*2*4 {
		t.Fatalf("got %dx%d with %d bytes", tex.Width, tex.Height, len(tex.Pixels))
	}
	if tex.Pixels[0] != 255 || tex.Pixels[2] != 0 || tex.Pixels[3] != 255 {
		t.Errorf("first pixel = %v, want red", tex.Pixels[:4])
	}
}

func TestDecodeTextureBMPDownscale(t *testing.T) {
	data := encodeCheckerboard(t, 64, 32, func(b *bytes.Buffer, img image.Image) error { return bmp.Encode(b, img) })
	tex, err := DecodeTexture("checker.bmp", bytes.NewReader(data), 16)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Width != 16 || tex.Height != 8 {
		t.Errorf("got %dx%d, want 16x8", tex.Width, tex.Height)
	}
}

func TestDecodeTextureRejectsGarbage(t *testing.T) {
	if _, err := DecodeTexture("junk", bytes.NewReader([]byte("not an image")), 0); err == nil {
		t.Error("expected a decode error")
	}
}

func TestTextureUploadOnce(t *testing.T) {
	ctx := gputest.NewContext()
	tex := NewSolidTexture("white", 255, 255, 255, 255)
	h := tex.Upload(ctx)
	if tex.Upload(ctx) != h || ctx.Count("CreateTexture") != 1 {
		t.Errorf("texture uploaded %d times", ctx.Count("CreateTexture"))
	}
	tex.Release(ctx)
	if tex.Handle() != 0 || ctx.LiveTextures() != 0 {
		t.Error("Release should delete the GPU texture")
	}
}

func TestFitSize(t *testing.T) {
	tests := []struct{ w, h, limit, ww, wh int }{
		{100, 50, 0, 100, 50},
		{100, 50, 200, 100, 50},
		{100, 50, 10, 10, 5},
		{50, 100, 10, 5, 10},
		{1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		w, h := fitSize(tt.w, tt.h, tt.limit)
		if w != tt.ww || h != tt.wh {
			t.Errorf("fitSize(%d, %d, %d) = %d, %d; want %d, %d", tt.w, tt.h, tt.limit, w, h, tt.ww, tt.wh)
		}
	}
}
