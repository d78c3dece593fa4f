// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package compute

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// DefaultTimeout bounds every fence wait.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNoHalProvider is returned when a device provider does not expose
	// hal.Device and hal.Queue.
	ErrNoHalProvider = errors.New("compute: provider does not expose HAL types")

	// ErrFenceTimeout is returned when submitted work does not finish within
	// the device timeout.
	ErrFenceTimeout = errors.New("compute: fence wait timed out")
)

// Device is a compute context bound to one GPU device and its queue.
//
// A Device either owns its device (OpenStandalone) or borrows the device of
// the window (DeviceFromProvider). Borrowed devices are never destroyed by
// Close; the window owns them.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapter  string
	timeout  time.Duration
	external bool // true when using shared device (don't destroy on Close)
}

// OpenStandalone creates a Vulkan instance and opens a device of its own.
// A discrete GPU is preferred, then an integrated GPU, then the first adapter.
func OpenStandalone() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("compute: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("compute: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("compute: no GPU adapters found")
	}
	selected := selectAdapter(adapters)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("compute: open device: %w", err)
	}
	slogger().Info("compute: GPU initialized (standalone)", "adapter", selected.Info.Name)

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
		timeout:  DefaultTimeout,
	}, nil
}

func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			return &adapters[i]
		}
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// DeviceFromProvider borrows the GPU device of an external provider
// (gogpu's GPUContextProvider). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func DeviceFromProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHalProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHalProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHalProvider)
	}
	slogger().Info("compute: using shared GPU device")
	return NewDevice(device, queue), nil
}

// NewDevice wraps a device and queue owned by someone else.
func NewDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		adapter:  "shared",
		timeout:  DefaultTimeout,
		external: true,
	}
}

// Adapter returns the adapter name, or "shared" for a borrowed device.
func (d *Device) Adapter() string { return d.adapter }

// Shared reports whether the device is borrowed from the window.
func (d *Device) Shared() bool { return d.external }

// SetTimeout changes the fence wait bound. Non-positive values restore
// DefaultTimeout.
func (d *Device) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d.mu.Lock()
	d.timeout = timeout
	d.mu.Unlock()
}

// Close destroys the device and instance if this Device owns them.
// Close is idempotent.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}

// handles returns the device and queue, or ErrClosed.
func (d *Device) handles() (hal.Device, hal.Queue, time.Duration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil || d.queue == nil {
		return nil, nil, 0, ErrClosed
	}
	return d.device, d.queue, d.timeout, nil
}

// createBuffer allocates a buffer of size bytes with the given usage.
func (d *Device) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	device, _, _, err := d.handles()
	if err != nil {
		return nil, err
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	slogger().Debug("compute: buffer created", "label", label, "bytes", size)
	return buf, nil
}

// destroyBuffer releases a buffer created by createBuffer.
func (d *Device) destroyBuffer(buf hal.Buffer) {
	if buf == nil {
		return
	}
	device, _, _, err := d.handles()
	if err != nil {
		return
	}
	device.DestroyBuffer(buf)
}

// write uploads data at offset 0 of buf.
func (d *Device) write(buf hal.Buffer, data []byte) error {
	_, queue, _, err := d.handles()
	if err != nil {
		return err
	}
	queue.WriteBuffer(buf, 0, data)
	return nil
}

// submit records commands with encode, submits them and blocks on a fence
// until the GPU finishes or the timeout elapses. A nil encode submits an
// empty command buffer, which drains all previously submitted work.
func (d *Device) submit(label string, encode func(hal.CommandEncoder) error) error {
	device, queue, timeout, err := d.handles()
	if err != nil {
		return err
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	if encode != nil {
		if err := encode(encoder); err != nil {
			return err
		}
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)
	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := device.Wait(fence, 1, timeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return fmt.Errorf("%s: %w after %v", label, ErrFenceTimeout, timeout)
	}
	return nil
}

// read copies len(dst) bytes from a MapRead buffer into dst.
func (d *Device) read(buf hal.Buffer, dst []byte) error {
	_, queue, _, err := d.handles()
	if err != nil {
		return err
	}
	if err := queue.ReadBuffer(buf, 0, dst); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	return nil
}
