// Package shader turns the engine's WGSL sources into the SPIR-V the
// renderer consumes, and optionally watches them on disk for hot reload.
package shader

import (
	"fmt"

	"github.com/gogpu/naga"

	"github.com/spaghettifunk/avenir/engine/renderer/hal"
)

var _ hal.ShaderCompiler = (*Compiler)(nil)

// Compiler translates WGSL to SPIR-V words through naga. It holds no state
// and a single instance can serve every pipeline build.
type Compiler struct{}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile satisfies the renderer's compiler contract. naga diagnostics come
// back as a hal.ShaderCompileError naming the offending source.
func (c *Compiler) Compile(src hal.ShaderSource) ([]uint32, error) {
	raw, err := naga.Compile(src.Source)
	if err != nil {
		return nil, &hal.ShaderCompileError{Name: src.Name, Diagnostic: err.Error()}
	}
	words, err := spirvWords(raw)
	if err != nil {
		return nil, &hal.ShaderCompileError{Name: src.Name, Diagnostic: err.Error()}
	}
	return words, nil
}

// spirvWords reinterprets the compiler's byte output as the little-endian
// 32-bit words Vulkan consumes.
func spirvWords(raw []byte) ([]uint32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V blob is %d bytes, not a whole number of words", len(raw))
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = uint32(raw[i*4]) |
			uint32(raw[i*4+1])<<8 |
			uint32(raw[i*4+2])<<16 |
			uint32(raw[i*4+3])<<24
	}
	return words, nil
}
