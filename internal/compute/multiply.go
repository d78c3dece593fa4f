// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package compute

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Options configures NewMultiplier.
type Options struct {
	// Shader selects WGSL or naga-compiled SPIR-V. Empty means WGSL.
	Shader ShaderFormat
}

// Multiplier runs the multiply_by_scalar kernel on a Device.
// It implements Kernel.
type Multiplier struct {
	mu sync.Mutex

	dev *Device

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

var _ Kernel = (*Multiplier)(nil)

// NewMultiplier builds the kernel program and pipeline on dev.
func NewMultiplier(dev *Device, opts Options) (*Multiplier, error) {
	m := &Multiplier{dev: dev}
	if err := m.createPipeline(opts.Shader); err != nil {
		m.destroyPipeline()
		return nil, err
	}
	return m, nil
}

// Name returns "gpu".
func (m *Multiplier) Name() string { return "gpu" }

// Device returns the device the kernel runs on.
func (m *Multiplier) Device() *Device { return m.dev }

// Multiply uploads src, runs the kernel and reads the result back through a
// staging buffer.
func (m *Multiplier) Multiply(ctx context.Context, coeff float32, src []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ws, err := GlobalWorkSize(len(src))
	if err != nil {
		return nil, err
	}
	size := byteSize(len(src))

	srcBuf, err := m.dev.createBuffer("multiply_src", size,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	defer m.dev.destroyBuffer(srcBuf)

	resBuf, err := m.dev.createBuffer("multiply_res", size,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	defer m.dev.destroyBuffer(resBuf)

	stagingBuf, err := m.dev.createBuffer("multiply_staging", size,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	defer m.dev.destroyBuffer(stagingBuf)

	if err := m.dev.write(srcBuf, encodeFloats(src)); err != nil {
		return nil, err
	}

	err = m.run(ctx, coeff, len(src), ws, srcBuf, resBuf, func(encoder hal.CommandEncoder) {
		encoder.CopyBufferToBuffer(resBuf, stagingBuf, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: size},
		})
	})
	if err != nil {
		return nil, err
	}

	readback := make([]byte, size)
	if err := m.dev.read(stagingBuf, readback); err != nil {
		return nil, err
	}
	res := make([]float32, len(src))
	decodeFloats(readback, res)
	return res, nil
}

// Dispatch runs the kernel over n elements of src, writing into res, and
// waits for completion. Both buffers must live on the kernel's device and
// hold at least n floats.
func (m *Multiplier) Dispatch(ctx context.Context, coeff float32, n int, src, res hal.Buffer) error {
	ws, err := GlobalWorkSize(n)
	if err != nil {
		return err
	}
	return m.run(ctx, coeff, n, ws, src, res, nil)
}

// run binds the buffers, records one compute pass plus any trailing
// commands from after, submits and waits.
func (m *Multiplier) run(
	ctx context.Context, coeff float32, n int, ws WorkSize,
	src, res hal.Buffer, after func(hal.CommandEncoder),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pipeline == nil {
		return ErrClosed
	}

	device, _, _, err := m.dev.handles()
	if err != nil {
		return err
	}

	uniform, err := m.dev.createBuffer("multiply_params", paramsSize,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer m.dev.destroyBuffer(uniform)
	if err := m.dev.write(uniform, encodeParams(coeff, uint32(n), ws.RowPitch)); err != nil { //nolint:gosec // n validated by GlobalWorkSize
		return err
	}

	size := byteSize(n)
	bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "multiply_bind", Layout: m.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniform.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: src.NativeHandle(), Offset: 0, Size: size}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: res.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer device.DestroyBindGroup(bg)

	slogger().Debug("compute: dispatch",
		"elements", n, "groups_x", ws.Groups[0], "groups_y", ws.Groups[1])

	return m.dev.submit("multiply", func(encoder hal.CommandEncoder) error {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "multiply_pass"})
		pass.SetPipeline(m.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(ws.Groups[0], ws.Groups[1], 1)
		pass.End()
		if after != nil {
			after(encoder)
		}
		return nil
	})
}

// Close destroys the pipeline objects. The device is left open.
func (m *Multiplier) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyPipeline()
}

func (m *Multiplier) createPipeline(format ShaderFormat) error {
	device, _, _, err := m.dev.handles()
	if err != nil {
		return err
	}

	shader, err := createShaderModule(device, format)
	if err != nil {
		return fmt.Errorf("compile multiply shader: %w", err)
	}
	m.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "multiply_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	m.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "multiply_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{m.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	m.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "multiply_pipeline", Layout: m.pipeLayout,
		Compute: hal.ComputeState{Module: m.shader, EntryPoint: EntryPoint},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	m.pipeline = pipeline
	return nil
}

func (m *Multiplier) destroyPipeline() {
	device, _, _, err := m.dev.handles()
	if err != nil {
		return
	}
	if m.pipeline != nil {
		device.DestroyComputePipeline(m.pipeline)
		m.pipeline = nil
	}
	if m.pipeLayout != nil {
		device.DestroyPipelineLayout(m.pipeLayout)
		m.pipeLayout = nil
	}
	if m.bindLayout != nil {
		device.DestroyBindGroupLayout(m.bindLayout)
		m.bindLayout = nil
	}
	if m.shader != nil {
		device.DestroyShaderModule(m.shader)
		m.shader = nil
	}
}
