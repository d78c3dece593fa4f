package frame

import (
	"image"
	"image/color"
	"testing"
)

func TestOverlayDrawsText(t *testing.T) {
	o, err := NewOverlay(14, color.White)
	if err != nil {
		t.Fatalf("NewOverlay() = %v", err)
	}
	defer o.Close()

	c, err := New(320, 60, sky)
	if err != nil {
		t.Fatal(err)
	}

	o.SetLines("1,048,576 elements verified", "backend: gpu")
	if len(o.Lines()) != 2 {
		t.Fatalf("Lines() = %v, want 2 lines", o.Lines())
	}
	if err := c.Draw(func(img *image.RGBA) { o.Draw(img) }); err != nil {
		t.Fatal(err)
	}

	changed := 0
	img := c.Image()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != sky {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Error("overlay drew no pixels")
	}
}

func TestOverlayNoLines(t *testing.T) {
	o, err := NewOverlay(12, color.White)
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	c, err := New(8, 8, sky)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Draw(func(img *image.RGBA) { o.Draw(img) }); err != nil {
		t.Fatal(err)
	}
	if got := c.Image().RGBAAt(4, 4); got != sky {
		t.Errorf("pixel = %v, want untouched clear colour", got)
	}
}
