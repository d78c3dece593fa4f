// Package interop demonstrates compute and graphics interoperability on a
// single GPU device with the GoGPU stack.
//
// # Overview
//
// Two example programs open a window, build a compute context tied to the
// window's graphics device, run an elementwise multiply kernel over about a
// million floats and then idle in an event loop that presents a cleared
// frame.
//
//	cmd/interop-basic   compute on the window's device, data copied through host memory
//	cmd/interop-shared  compute on the window's device, result buffer shared with graphics
//
// # Zero-copy handshake
//
// In the shared variant the result lives in a graphics buffer (vertex and
// storage usage). Compute borrows it through a fixed sequence:
//
//	acquire -> run kernel -> read back -> release
//
// See package internal/share for the ownership rules.
//
// # Architecture
//
//   - internal/compute: wgpu/hal device, multiply kernel, shared buffer
//   - internal/share: acquire/release ownership handshake
//   - internal/dataset: source data, exact verification, report
//   - internal/frame: cleared frame canvas, text overlay, frame pacing
//   - internal/parallel: worker pool for the host reference kernel
//   - internal/config: YAML + flag configuration
//   - internal/app: window wiring for both variants
//
// # Logging
//
// Nothing is logged by default. Call [SetLogger] to enable output.
package interop

// Version information
const (
	// Version is the current version of the module
	Version = "0.1.0"
)
