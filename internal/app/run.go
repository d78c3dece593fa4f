// Package app runs the interop demo: a compute pass over a scrambled data
// set followed by an event loop presenting a cleared frame.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/interop/internal/compute"
	"github.com/gogpu/interop/internal/config"
	"github.com/gogpu/interop/internal/dataset"
	"github.com/gogpu/interop/internal/share"
)

// Mode selects how the kernel reaches its data.
type Mode int

const (
	// ModeCopy runs the kernel on the window's device and copies the data
	// through host memory.
	ModeCopy Mode = iota

	// ModeShared runs the kernel on the window's device and writes into a
	// graphics buffer handed over by the acquire/release handshake.
	ModeShared
)

// String returns "copy" or "shared".
func (m Mode) String() string {
	if m == ModeShared {
		return "shared"
	}
	return "copy"
}

// Result summarises one verified kernel run.
type Result struct {
	Mode     Mode
	Backend  string
	Elements int
	WorkSize compute.WorkSize
	Summary  string
}

// Lines returns the status text drawn by the overlay.
func (r Result) Lines() []string {
	return []string{
		r.Summary,
		fmt.Sprintf("mode: %s, backend: %s, global work size: %s", r.Mode, r.Backend, r.WorkSize),
		"press Escape to quit",
	}
}

// Run executes the demo described by cfg. Report rows and the summary are
// written to out.
func Run(ctx context.Context, cfg config.Config, mode Mode, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.NoWindow {
		_, err := runHeadless(ctx, cfg, mode, out)
		return err
	}
	return runWindow(ctx, cfg, mode, out)
}

func runHeadless(ctx context.Context, cfg config.Config, mode Mode, out io.Writer) (Result, error) {
	if mode == ModeCopy {
		k, err := newKernel(cfg)
		if err != nil {
			return Result{}, err
		}
		defer k.Close()
		return runKernel(ctx, cfg, k, out)
	}

	if cfg.Compute.Backend == config.BackendCPU {
		return runHandshake(ctx, cfg, config.BackendCPU, hostBackend, out)
	}
	k, err := newKernel(cfg)
	if err != nil {
		return Result{}, err
	}
	defer k.Close()
	return runHandshake(ctx, cfg, k.Name(), gpuBackend(k), out)
}

// source builds the scrambled input described by cfg.
func source(cfg config.Config) []float32 {
	c := cfg.Compute
	return dataset.Scrambled(c.Size, c.Min, c.Max, c.Seed)
}

func workSize(n int) (compute.WorkSize, error) {
	ws, err := compute.GlobalWorkSize(n)
	if err != nil {
		return ws, err
	}
	slog.Info("Kernel global work size", "size", ws.String(), "groups", ws.Groups)
	return ws, nil
}

// runKernel uploads the data set, multiplies it and checks the result.
func runKernel(ctx context.Context, cfg config.Config, k compute.Kernel, out io.Writer) (Result, error) {
	src := source(cfg)
	ws, err := workSize(len(src))
	if err != nil {
		return Result{}, err
	}
	res, err := k.Multiply(ctx, cfg.Compute.Coefficient, src)
	if err != nil {
		return Result{}, fmt.Errorf("multiply on %s: %w", k.Name(), err)
	}
	return finish(cfg, src, res, Result{Mode: ModeCopy, Backend: k.Name(), WorkSize: ws}, out)
}

// backendFactory creates the shared object holding src. The returned
// function releases its resources.
type backendFactory func(src []float32) (share.Backend, func(), error)

func hostBackend(src []float32) (share.Backend, func(), error) {
	h, err := compute.NewHostShared(src)
	if err != nil {
		return nil, nil, err
	}
	return h, func() {}, nil
}

// runHandshake runs acquire, kernel, read back and release on a shared
// object and checks the result.
func runHandshake(ctx context.Context, cfg config.Config, backend string, factory backendFactory, out io.Writer) (Result, error) {
	src := source(cfg)
	ws, err := workSize(len(src))
	if err != nil {
		return Result{}, err
	}
	b, closeFn, err := factory(src)
	if err != nil {
		return Result{}, fmt.Errorf("create shared object: %w", err)
	}
	defer closeFn()

	res := make([]float32, len(src))
	if err := share.Run(ctx, share.NewObject(b), cfg.Compute.Coefficient, res); err != nil {
		return Result{}, err
	}
	return finish(cfg, src, res, Result{Mode: ModeShared, Backend: backend, WorkSize: ws}, out)
}

func finish(cfg config.Config, src, res []float32, r Result, out io.Writer) (Result, error) {
	coeff := cfg.Compute.Coefficient
	if err := dataset.Report(out, src, res, coeff, cfg.Compute.Rows); err != nil {
		return Result{}, fmt.Errorf("write report: %w", err)
	}
	if err := dataset.Verify(src, res, coeff); err != nil {
		return Result{}, err
	}
	r.Elements = len(src)
	r.Summary = dataset.Summary(len(src), coeff)
	if _, err := fmt.Fprintln(out, r.Summary); err != nil {
		return Result{}, fmt.Errorf("write report: %w", err)
	}
	slog.Info("kernel result verified", "mode", r.Mode, "backend", r.Backend, "elements", r.Elements)
	return r, nil
}
