// Package share implements the ownership handshake for a buffer shared
// between the graphics pipeline and a compute kernel.
//
// A shared object starts owned by graphics. Compute takes it with Acquire,
// may then run the kernel and read the result, and hands it back with
// Release. The full sequence is
//
//	acquire -> run kernel -> read back -> release
//
// and Run performs it in that order.
package share

import (
	"context"
	"errors"
	"fmt"
)

// Owner identifies which API may touch the shared object.
type Owner int

const (
	// OwnerGraphics means the render pipeline owns the object.
	OwnerGraphics Owner = iota

	// OwnerCompute means the compute kernel owns the object.
	OwnerCompute
)

func (o Owner) String() string {
	switch o {
	case OwnerGraphics:
		return "graphics"
	case OwnerCompute:
		return "compute"
	default:
		return fmt.Sprintf("Owner(%d)", int(o))
	}
}

// Errors returned for out-of-order handshake calls.
var (
	// ErrAlreadyAcquired is returned by Acquire when compute already owns the object.
	ErrAlreadyAcquired = errors.New("share: object already acquired by compute")

	// ErrNotAcquired is returned when a compute step runs without ownership.
	ErrNotAcquired = errors.New("share: object not acquired by compute")
)

// Backend performs the device side of each step.
type Backend interface {
	// Acquire makes the object safe for compute to use.
	Acquire(ctx context.Context) error

	// Run executes the multiply kernel writing into the object.
	Run(ctx context.Context, coeff float32) error

	// Read copies the object's contents into dst.
	Read(ctx context.Context, dst []float32) error

	// Release makes compute writes visible to graphics.
	Release(ctx context.Context) error
}

// Object tracks ownership of one shared buffer.
// It is not safe for concurrent use; the handshake is a single linear
// sequence on one queue.
type Object struct {
	backend Backend
	owner   Owner
}

// NewObject wraps backend. The object starts owned by graphics.
func NewObject(backend Backend) *Object {
	return &Object{backend: backend, owner: OwnerGraphics}
}

// Owner returns the current owner.
func (o *Object) Owner() Owner { return o.owner }

// Acquire hands the object to compute.
func (o *Object) Acquire(ctx context.Context) error {
	if o.owner == OwnerCompute {
		return ErrAlreadyAcquired
	}
	if err := o.backend.Acquire(ctx); err != nil {
		return err
	}
	o.owner = OwnerCompute
	return nil
}

// Run executes the kernel. The object must be acquired.
func (o *Object) Run(ctx context.Context, coeff float32) error {
	if o.owner != OwnerCompute {
		return fmt.Errorf("run: %w", ErrNotAcquired)
	}
	return o.backend.Run(ctx, coeff)
}

// Read copies the result into dst. The object must be acquired.
func (o *Object) Read(ctx context.Context, dst []float32) error {
	if o.owner != OwnerCompute {
		return fmt.Errorf("read: %w", ErrNotAcquired)
	}
	return o.backend.Read(ctx, dst)
}

// Release hands the object back to graphics. Ownership returns to graphics
// even when the backend reports an error, so the window keeps drawing.
func (o *Object) Release(ctx context.Context) error {
	if o.owner != OwnerCompute {
		return fmt.Errorf("release: %w", ErrNotAcquired)
	}
	o.owner = OwnerGraphics
	return o.backend.Release(ctx)
}

// Run performs acquire -> run kernel -> read back -> release on o.
// When a step after Acquire fails, Release is still attempted and both
// errors are returned joined.
func Run(ctx context.Context, o *Object, coeff float32, dst []float32) (err error) {
	log := slogger()
	log.Debug("share: acquire", "owner", o.Owner())
	if err := o.Acquire(ctx); err != nil {
		return fmt.Errorf("share: acquire: %w", err)
	}
	defer func() {
		log.Debug("share: release")
		if rerr := o.Release(ctx); rerr != nil {
			err = errors.Join(err, fmt.Errorf("share: release: %w", rerr))
		}
	}()

	log.Debug("share: run kernel", "coeff", coeff)
	if err := o.Run(ctx, coeff); err != nil {
		return fmt.Errorf("share: run kernel: %w", err)
	}
	log.Debug("share: read back", "elements", len(dst))
	if err := o.Read(ctx, dst); err != nil {
		return fmt.Errorf("share: read back: %w", err)
	}
	return nil
}
