package shader

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/pkg/errors"

	"video-recolorizer/internal/core"
)

//go:embed shaders/recolor.wgsl
var recolorShaderWGSL string

// Entry points of the recolor program
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// Program is the compiled recolor shader. SPIRV holds little-endian
// 32-bit words ready for a shader module descriptor.
type Program struct {
	Source string
	SPIRV  []uint32
}

// NewProgram compiles the embedded recolor shader
func NewProgram() (*Program, error) {
	return CompileProgram(recolorShaderWGSL)
}

// CompileProgram compiles WGSL source to SPIR-V. Failures are reported as
// core.ErrInitFailed.
func CompileProgram(source string) (*Program, error) {
	if source == "" {
		return nil, errors.Wrap(core.ErrInitFailed, "shader source is empty")
	}

	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, errors.Wrap(core.ErrInitFailed, fmt.Sprintf("failed to compile shader: %v", err))
	}
	if len(spirvBytes) == 0 || len(spirvBytes)%4 != 0 {
		return nil, errors.Wrapf(core.ErrInitFailed, "invalid SPIR-V length %d", len(spirvBytes))
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return &Program{Source: source, SPIRV: words}, nil
}
