// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/interop/internal/parallel"
)

// EntryPoint is the name of the kernel function in the multiply shader.
const EntryPoint = "multiply_by_scalar"

// WorkgroupSize is the number of invocations per workgroup along X.
// It must match @workgroup_size in shaders/multiply.wgsl.
const WorkgroupSize = 64

// maxWorkgroupsPerDimension is the WebGPU default limit for one dispatch axis.
const maxWorkgroupsPerDimension = 65535

// Errors returned by kernels.
var (
	// ErrClosed is returned when a kernel or device is used after Close.
	ErrClosed = errors.New("compute: closed")

	// ErrEmptyInput is returned when the source slice is empty.
	ErrEmptyInput = errors.New("compute: empty input")

	// ErrTooLarge is returned when the input does not fit a single dispatch.
	ErrTooLarge = errors.New("compute: input exceeds dispatch limits")
)

// Kernel multiplies every element of a buffer by a scalar.
type Kernel interface {
	// Name identifies the backend ("gpu" or "cpu").
	Name() string

	// Multiply returns src[i] * coeff for every i.
	Multiply(ctx context.Context, coeff float32, src []float32) ([]float32, error)

	// Close releases the kernel's resources.
	Close()
}

// WorkSize describes how n elements map onto the dispatch grid.
type WorkSize struct {
	// Groups is the number of workgroups along X and Y.
	Groups [2]uint32

	// Global is the number of invocations along X and Y (Groups * workgroup size).
	Global [2]uint32

	// RowPitch is the number of invocations in one grid row.
	RowPitch uint32
}

// String formats the global work size like "[1048576, 1]".
func (w WorkSize) String() string {
	return fmt.Sprintf("[%d, %d]", w.Global[0], w.Global[1])
}

// GlobalWorkSize computes the dispatch grid for n elements.
// Inputs that need more than 65535 workgroups spill into a second dimension.
func GlobalWorkSize(n int) (WorkSize, error) {
	if n <= 0 {
		return WorkSize{}, ErrEmptyInput
	}
	groups := (n + WorkgroupSize - 1) / WorkgroupSize
	x := min(groups, maxWorkgroupsPerDimension)
	y := (groups + x - 1) / x
	if y > maxWorkgroupsPerDimension {
		return WorkSize{}, fmt.Errorf("%w: %d elements", ErrTooLarge, n)
	}
	return WorkSize{
		Groups:   [2]uint32{uint32(x), uint32(y)},                 //nolint:gosec // bounded above
		Global:   [2]uint32{uint32(x * WorkgroupSize), uint32(y)}, //nolint:gosec // bounded above
		RowPitch: uint32(x * WorkgroupSize),                       //nolint:gosec // bounded above
	}, nil
}

// parallelThreshold is the input length from which CPU splits the work
// across goroutines.
const parallelThreshold = 1 << 16

// cpuChunk is the number of elements per pool task.
const cpuChunk = 1 << 14

// CPU is the host implementation of Kernel.
// It is the reference the GPU result is compared against and the backend
// used on machines without a GPU.
//
// CPU is NOT safe for concurrent use.
type CPU struct {
	// Workers is the number of goroutines used for large inputs.
	// Zero means GOMAXPROCS.
	Workers int

	pool   *parallel.Pool
	closed bool
}

var _ Kernel = (*CPU)(nil)

// Name returns "cpu".
func (c *CPU) Name() string { return "cpu" }

// Multiply computes src[i] * coeff on the host.
func (c *CPU) Multiply(ctx context.Context, coeff float32, src []float32) ([]float32, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := make([]float32, len(src))
	if len(src) < parallelThreshold {
		multiplyInto(res, src, coeff)
		return res, nil
	}
	if c.pool == nil {
		c.pool = parallel.NewPool(c.Workers)
	}
	ok := c.pool.Range(len(src), cpuChunk, func(lo, hi int) {
		multiplyInto(res[lo:hi], src[lo:hi], coeff)
	})
	if !ok {
		return nil, ErrClosed
	}
	return res, nil
}

// Close stops the worker pool and marks the kernel closed.
func (c *CPU) Close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	c.closed = true
}

func multiplyInto(dst, src []float32, coeff float32) {
	for i, v := range src {
		dst[i] = v * coeff
	}
}
