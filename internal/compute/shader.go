//go:build !nogpu

package compute

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/multiply.wgsl
var multiplyShaderWGSL string

// ShaderFormat selects how the kernel source reaches the device.
type ShaderFormat string

const (
	// ShaderWGSL hands WGSL source to the hal backend.
	ShaderWGSL ShaderFormat = "wgsl"

	// ShaderSPIRV compiles WGSL to SPIR-V with naga before module creation.
	ShaderSPIRV ShaderFormat = "spirv"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// MultiplyShaderSource returns the WGSL source of the multiply kernel.
func MultiplyShaderSource() string {
	return multiplyShaderWGSL
}

// CompileSPIRV compiles WGSL source to SPIR-V words with naga.
func CompileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes) < 4 || len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile shader: invalid SPIR-V length %d", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("compile shader: bad SPIR-V magic 0x%08X", words[0])
	}
	return words, nil
}

// createShaderModule builds the kernel module in the requested format.
func createShaderModule(device hal.Device, format ShaderFormat) (hal.ShaderModule, error) {
	var src hal.ShaderSource
	switch format {
	case ShaderSPIRV:
		words, err := CompileSPIRV(multiplyShaderWGSL)
		if err != nil {
			return nil, err
		}
		src = hal.ShaderSource{SPIRV: words}
	case ShaderWGSL, "":
		src = hal.ShaderSource{WGSL: multiplyShaderWGSL}
	default:
		return nil, fmt.Errorf("compute: unknown shader format %q", format)
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "multiply_by_scalar",
		Source: src,
	})
}
