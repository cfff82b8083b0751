package gpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Entry points of the sprite shader.
const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

// ErrShaderInvalid is returned when a WGSL source fails validation.
var ErrShaderInvalid = errors.New("grafx: invalid shader")

// SpriteShaderSource returns the WGSL source of the sprite shader.
func SpriteShaderSource() string { return spriteShaderSource }

// ValidateShader parses, lowers and validates WGSL source with naga and
// checks that it exposes a vs_main vertex and an fs_main fragment entry
// point. Drivers report shader errors late and inconsistently, so the
// pipeline refuses to hand them a source that fails here.
func ValidateShader(source string) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: parse: %w", ErrShaderInvalid, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("%w: lower: %w", ErrShaderInvalid, err)
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: validate: %w", ErrShaderInvalid, err)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s (%d issues)", ErrShaderInvalid, problems[0].Error(), len(problems))
	}

	want := map[string]ir.ShaderStage{
		vertexEntryPoint:   ir.StageVertex,
		fragmentEntryPoint: ir.StageFragment,
	}
	for _, ep := range module.EntryPoints {
		if stage, ok := want[ep.Name]; ok && stage == ep.Stage {
			delete(want, ep.Name)
		}
	}
	for name := range want {
		return fmt.Errorf("%w: missing entry point %s", ErrShaderInvalid, name)
	}
	return nil
}
