package compute

import (
	"context"
	"fmt"
)

// HostShared is the host-memory counterpart of SharedBuffer. It follows the
// same acquire/run/read/release contract and backs the cpu backend.
type HostShared struct {
	src []float32
	res []float32

	// Steps records the handshake calls in order.
	Steps []string
}

// NewHostShared copies src into a new host shared object.
func NewHostShared(src []float32) (*HostShared, error) {
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}
	return &HostShared{
		src: append([]float32(nil), src...),
		res: make([]float32, len(src)),
	}, nil
}

// Len returns the number of float32 elements.
func (h *HostShared) Len() int { return len(h.src) }

// Acquire records the step.
func (h *HostShared) Acquire(ctx context.Context) error {
	h.Steps = append(h.Steps, "acquire")
	return ctx.Err()
}

// Run multiplies on the host.
func (h *HostShared) Run(ctx context.Context, coeff float32) error {
	h.Steps = append(h.Steps, "run")
	if err := ctx.Err(); err != nil {
		return err
	}
	multiplyInto(h.res, h.src, coeff)
	return nil
}

// Read copies the result into dst.
func (h *HostShared) Read(ctx context.Context, dst []float32) error {
	h.Steps = append(h.Steps, "read")
	if len(dst) < len(h.res) {
		return fmt.Errorf("compute: read into %d elements, need %d", len(dst), len(h.res))
	}
	copy(dst, h.res)
	return ctx.Err()
}

// Release records the step.
func (h *HostShared) Release(context.Context) error {
	h.Steps = append(h.Steps, "release")
	return nil
}
