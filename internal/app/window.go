package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/interop/internal/compute"
	"github.com/gogpu/interop/internal/config"
	"github.com/gogpu/interop/internal/frame"
)

// overlayPointSize is the status text size in points.
const overlayPointSize = 14

// isQuitKey reports whether key ends the event loop.
func isQuitKey(key gpucontext.Key) bool {
	return key == gpucontext.KeyEscape
}

// windowCompute returns the kernel run performed on the first frame and the
// cleanup that releases its resources. The compute context is built on the
// window's own device, taken from provider. In ModeCopy the data goes
// through host memory (upload, dispatch, staging readback); in ModeShared
// the result is written into a shared graphics buffer.
func windowCompute(ctx context.Context, cfg config.Config, mode Mode, out io.Writer) (run func(provider any) (Result, error), cleanup func()) {
	var (
		kernel *compute.Multiplier
		dev    *compute.Device
	)
	run = func(provider any) (Result, error) {
		if cfg.Compute.Backend == config.BackendCPU {
			if mode == ModeShared {
				return runHandshake(ctx, cfg, config.BackendCPU, hostBackend, out)
			}
			k := &compute.CPU{}
			defer k.Close()
			return runKernel(ctx, cfg, k, out)
		}

		var err error
		dev, err = compute.DeviceFromProvider(provider)
		if err != nil {
			return Result{}, err
		}
		kernel, err = newMultiplier(cfg, dev)
		if err != nil {
			return Result{}, err
		}
		if mode == ModeShared {
			return runHandshake(ctx, cfg, kernel.Name(), gpuBackend(kernel), out)
		}
		return runKernel(ctx, cfg, kernel, out)
	}
	cleanup = func() {
		if kernel != nil {
			kernel.Close()
		}
		if dev != nil {
			dev.Close()
		}
	}
	return run, cleanup
}

// firstFrame runs the kernel once, on the first frame that has a device
// provider.
type firstFrame struct {
	run  func(provider any) (Result, error)
	done bool
}

// step runs the kernel if it has not run yet and provider is available.
// ran reports whether the kernel ran during this call.
func (f *firstFrame) step(provider any) (res Result, ran bool, err error) {
	if f.done || provider == nil {
		return Result{}, false, nil
	}
	f.done = true
	res, err = f.run(provider)
	return res, true, err
}

// runWindow opens the window and presents the cleared frame until Escape is
// pressed or the window is closed. The kernel runs on the first frame whose
// GPU context provider is available.
func runWindow(ctx context.Context, cfg config.Config, mode Mode, out io.Writer) error {
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(cfg.Window.Title).
		WithSize(cfg.Window.Width, cfg.Window.Height).
		WithContinuousRender(true))

	run, cleanup := windowCompute(ctx, cfg, mode, out)
	var (
		canvas  *frame.Canvas
		overlay *frame.Overlay
		pacer   = frame.NewPacer(cfg.Window.FPS)
		bg      = frame.ColorFromFloats(cfg.Window.ClearColor)
		first   = &firstFrame{run: run}
		runErr  error
	)

	fail := func(err error) {
		if runErr == nil {
			runErr = err
		}
		app.Quit()
	}

	if cfg.Overlay {
		var err error
		overlay, err = frame.NewOverlay(overlayPointSize, color.White)
		if err != nil {
			return err
		}
	}

	app.OnDraw(func(dc *gogpu.Context) {
		if runErr != nil {
			return
		}
		if !first.done {
			// The provider appears once the window's device exists.
			var provider any
			if p := app.GPUContextProvider(); p != nil {
				provider = p
			}
			res, ran, err := first.step(provider)
			if !ran {
				return
			}
			if err != nil {
				fail(err)
				return
			}
			slog.Info("window ready", "backend", dc.Backend(), "mode", mode)
			if overlay != nil {
				overlay.SetLines(res.Lines()...)
			}
		}

		w, h := dc.Width(), dc.Height()
		if w <= 0 || h <= 0 {
			return
		}
		if err := present(&canvas, overlay, bg, w, h, dc.AsTextureDrawer()); err != nil {
			fail(err)
			return
		}
		pacer.Wait()
	})

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if isQuitKey(key) {
			slog.Debug("escape pressed, quitting")
			app.Quit()
		}
	})

	app.OnClose(func() {
		if canvas != nil {
			_ = canvas.Close()
		}
		if overlay != nil {
			_ = overlay.Close()
		}
		cleanup()
	})

	if err := app.Run(); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return runErr
}

// present keeps the canvas at the window size, redraws the overlay after the
// canvas has been cleared and draws the frame.
func present(canvas **frame.Canvas, overlay *frame.Overlay, bg color.RGBA, w, h int, dc gpucontext.TextureDrawer) error {
	if *canvas == nil {
		c, err := frame.New(w, h, bg)
		if err != nil {
			return err
		}
		*canvas = c
	} else if err := (*canvas).Resize(w, h); err != nil {
		return err
	}

	c := *canvas
	if overlay != nil && c.IsDirty() {
		if err := c.Draw(func(img *image.RGBA) { overlay.Draw(img) }); err != nil {
			return err
		}
	}
	return c.RenderTo(dc)
}
