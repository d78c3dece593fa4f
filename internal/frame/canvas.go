// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/gpucontext"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("frame: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("frame: invalid dimensions")

	// ErrInvalidRenderer is returned when the draw context has no texture creator.
	ErrInvalidRenderer = errors.New("frame: draw context has no texture creator")

	// ErrInvalidTexture is returned when the created texture cannot be drawn.
	ErrInvalidTexture = errors.New("frame: texture does not implement gpucontext.Texture")
)

// textureDestroyer matches gogpu.Texture.Destroy.
type textureDestroyer interface {
	Destroy()
}

// pendingTexture holds pixel data until RenderTo has a texture creator.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}

// Canvas is the frame presented every tick: an RGBA buffer cleared to a
// fixed colour and uploaded to a GPU texture when it changes.
//
// Canvas is NOT safe for concurrent use.
type Canvas struct {
	img   *image.RGBA
	clear color.RGBA

	texture     any // Lazy-created texture (*gogpu.Texture)
	oldTexture  any // Previous texture awaiting deferred destruction
	dirty       bool
	sizeChanged bool
	closed      bool
}

// ColorFromFloats converts components in [0, 1] to an 8-bit colour.
// Out-of-range components are clamped.
func ColorFromFloats(rgba [4]float64) color.RGBA {
	conv := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return color.RGBA{R: conv(rgba[0]), G: conv(rgba[1]), B: conv(rgba[2]), A: conv(rgba[3])}
}

// New creates a canvas of the given size filled with clear.
func New(width, height int, clear color.RGBA) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	c := &Canvas{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		clear: clear,
	}
	c.Clear()
	return c, nil
}

// Size returns width and height.
func (c *Canvas) Size() (width, height int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// ClearColor returns the colour used by Clear.
func (c *Canvas) ClearColor() color.RGBA { return c.clear }

// Image returns the backing image. Returns nil if the canvas is closed.
func (c *Canvas) Image() *image.RGBA {
	if c.closed {
		return nil
	}
	return c.img
}

// Clear fills the canvas with the clear colour.
func (c *Canvas) Clear() {
	if c.closed {
		return
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.clear), image.Point{}, draw.Src)
	c.dirty = true
}

// Draw calls fn with the backing image and marks the canvas dirty.
func (c *Canvas) Draw(fn func(*image.RGBA)) error {
	if c.closed {
		return ErrCanvasClosed
	}
	fn(c.img)
	c.dirty = true
	return nil
}

// IsDirty reports whether the canvas has changes not yet uploaded.
func (c *Canvas) IsDirty() bool { return c.dirty }

// Resize reallocates the buffer and clears it. Same-size calls are no-ops.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if w, h := c.Size(); w == width && h == height {
		return nil
	}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.sizeChanged = true
	c.Clear()
	return nil
}

// Flush uploads the pixels to the texture if dirty and returns the texture.
// Before the first RenderTo the texture is a pending placeholder.
func (c *Canvas) Flush() (any, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	// The old texture may still be referenced by in-flight command buffers;
	// it is destroyed in RenderTo after the next texture upload has waited
	// for the GPU.
	if c.sizeChanged {
		if c.texture != nil {
			destroyTexture(c.oldTexture)
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}

	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}

	if c.texture == nil {
		w, h := c.Size()
		c.texture = &pendingTexture{width: w, height: h, data: c.img.Pix}
		c.dirty = false
		return c.texture, nil
	}

	if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(c.img.Pix); err != nil {
			return nil, fmt.Errorf("frame: texture update failed: %w", err)
		}
	}
	c.dirty = false
	return c.texture, nil
}

// RenderTo presents the canvas through dc at (0, 0).
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	if c.closed {
		return ErrCanvasClosed
	}

	tex, err := c.Flush()
	if err != nil {
		return err
	}

	if pending, isPending := tex.(*pendingTexture); isPending {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		// NewTextureFromRGBA waits for the GPU, so the old texture is idle
		// once it returns.
		realTex, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("frame: NewTextureFromRGBA failed: %w", err)
		}
		c.texture = realTex
		tex = realTex

		destroyTexture(c.oldTexture)
		c.oldTexture = nil
	}

	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidTexture
	}
	return dc.DrawTexture(gpuTex, 0, 0)
}

// Close releases the textures. Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	destroyTexture(c.oldTexture)
	destroyTexture(c.texture)
	c.oldTexture = nil
	c.texture = nil
	return nil
}

func destroyTexture(tex any) {
	if destroyer, ok := tex.(textureDestroyer); ok {
		destroyer.Destroy()
	}
}
