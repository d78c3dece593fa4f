package app

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/interop/internal/compute"
	"github.com/gogpu/interop/internal/config"
	"github.com/gogpu/interop/internal/share"
)

// ownedKernel closes the device together with the kernel.
type ownedKernel struct {
	*compute.Multiplier
}

func (k ownedKernel) Close() {
	k.Multiplier.Close()
	k.Device().Close()
}

// newKernel returns the kernel selected by cfg. A GPU kernel opens a
// standalone device that it closes on Close.
func newKernel(cfg config.Config) (compute.Kernel, error) {
	if cfg.Compute.Backend == config.BackendCPU {
		return &compute.CPU{}, nil
	}
	dev, err := compute.OpenStandalone()
	if err != nil {
		return nil, err
	}
	m, err := newMultiplier(cfg, dev)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return ownedKernel{m}, nil
}

func newMultiplier(cfg config.Config, dev *compute.Device) (*compute.Multiplier, error) {
	dev.SetTimeout(cfg.Compute.Timeout)
	m, err := compute.NewMultiplier(dev, compute.Options{Shader: compute.ShaderFormat(cfg.Compute.Shader)})
	if err != nil {
		return nil, fmt.Errorf("build multiply program: %w", err)
	}
	slog.Debug("multiply program built", "adapter", dev.Adapter(), "shader", cfg.Compute.Shader)
	return m, nil
}

// gpuBackend returns a factory creating SharedBuffers on k's device.
func gpuBackend(k compute.Kernel) backendFactory {
	return func(src []float32) (share.Backend, func(), error) {
		var m *compute.Multiplier
		switch v := k.(type) {
		case ownedKernel:
			m = v.Multiplier
		case *compute.Multiplier:
			m = v
		default:
			return nil, nil, fmt.Errorf("backend %q has no device buffers", k.Name())
		}
		sb, err := compute.NewSharedBuffer(m, src)
		if err != nil {
			return nil, nil, err
		}
		return sb, sb.Close, nil
	}
}
