package frame

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Overlay draws status lines onto a frame with the Go Regular font.
type Overlay struct {
	face  font.Face
	color color.Color
	lines []string
}

// NewOverlay parses the embedded Go font at the given point size.
func NewOverlay(size float64, c color.Color) (*Overlay, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("frame: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("frame: create face: %w", err)
	}
	return &Overlay{face: face, color: c}, nil
}

// SetLines replaces the text drawn by Draw.
func (o *Overlay) SetLines(lines ...string) {
	o.lines = append(o.lines[:0], lines...)
}

// Lines returns the current text.
func (o *Overlay) Lines() []string { return o.lines }

// Draw renders the lines top-left aligned with a small margin.
func (o *Overlay) Draw(dst draw.Image) {
	if len(o.lines) == 0 {
		return
	}
	m := o.face.Metrics()
	lineHeight := m.Height
	if lineHeight == 0 {
		lineHeight = m.Ascent + m.Descent
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(o.color),
		Face: o.face,
	}
	const margin = 8
	y := fixed.I(margin) + m.Ascent
	for _, line := range o.lines {
		d.Dot = fixed.Point26_6{X: fixed.I(margin), Y: y}
		d.DrawString(line)
		y += lineHeight
	}
}

// Close releases the font face.
func (o *Overlay) Close() error {
	return o.face.Close()
}
