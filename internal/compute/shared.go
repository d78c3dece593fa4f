//go:build !nogpu

package compute

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SharedBuffer is a graphics buffer that the multiply kernel writes into
// directly, without a host round trip.
//
// The result buffer is created with vertex usage so the render pipeline can
// bind it, and with storage usage so the kernel can write it. Compute may
// touch it only between Acquire and Release; package share enforces that
// ordering.
type SharedBuffer struct {
	kernel *Multiplier
	n      int

	src     hal.Buffer // kernel input, storage
	res     hal.Buffer // shared object, vertex + storage
	staging hal.Buffer // host readback
}

// NewSharedBuffer allocates the shared result buffer and uploads src on the
// kernel's device.
func NewSharedBuffer(kernel *Multiplier, src []float32) (*SharedBuffer, error) {
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}
	if _, err := GlobalWorkSize(len(src)); err != nil {
		return nil, err
	}
	dev := kernel.Device()
	size := byteSize(len(src))
	s := &SharedBuffer{kernel: kernel, n: len(src)}

	var err error
	s.src, err = dev.createBuffer("shared_src", size,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.res, err = dev.createBuffer("shared_res", size,
		gputypes.BufferUsageVertex|gputypes.BufferUsageStorage|
			gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.staging, err = dev.createBuffer("shared_staging", size,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := dev.write(s.src, encodeFloats(src)); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Len returns the number of float32 elements.
func (s *SharedBuffer) Len() int { return s.n }

// Buffer returns the shared object for binding in a render pipeline.
func (s *SharedBuffer) Buffer() hal.Buffer { return s.res }

// Acquire waits until every graphics command queued before it has finished,
// so the kernel never races a draw that reads the buffer.
func (s *SharedBuffer) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.kernel.Device().submit("shared_acquire", nil); err != nil {
		return fmt.Errorf("acquire shared buffer: %w", err)
	}
	return nil
}

// Run dispatches the kernel with the shared object as its output.
func (s *SharedBuffer) Run(ctx context.Context, coeff float32) error {
	if err := s.kernel.Dispatch(ctx, coeff, s.n, s.src, s.res); err != nil {
		return fmt.Errorf("run kernel on shared buffer: %w", err)
	}
	return nil
}

// Read copies the shared object into dst through the staging buffer.
func (s *SharedBuffer) Read(ctx context.Context, dst []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(dst) < s.n {
		return fmt.Errorf("compute: read into %d elements, need %d", len(dst), s.n)
	}
	dev := s.kernel.Device()
	size := byteSize(s.n)
	err := dev.submit("shared_read", func(encoder hal.CommandEncoder) error {
		encoder.CopyBufferToBuffer(s.res, s.staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: size},
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("read shared buffer: %w", err)
	}
	readback := make([]byte, size)
	if err := dev.read(s.staging, readback); err != nil {
		return fmt.Errorf("read shared buffer: %w", err)
	}
	decodeFloats(readback, dst)
	return nil
}

// Release flushes the queue so kernel writes are visible to the next draw.
func (s *SharedBuffer) Release(ctx context.Context) error {
	if err := s.kernel.Device().submit("shared_release", nil); err != nil {
		return fmt.Errorf("release shared buffer: %w", err)
	}
	return nil
}

// Close destroys the buffers. The kernel and device stay open.
func (s *SharedBuffer) Close() {
	dev := s.kernel.Device()
	dev.destroyBuffer(s.staging)
	dev.destroyBuffer(s.res)
	dev.destroyBuffer(s.src)
	s.staging, s.res, s.src = nil, nil, nil
}
