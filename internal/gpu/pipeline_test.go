package gpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestValidateSpriteShader(t *testing.T) {
	if err := ValidateShader(SpriteShaderSource()); err != nil {
		t.Fatalf("sprite shader invalid: %v", err)
	}
}

func TestValidateShaderRejects(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"syntax error", "fn vs_main( -> {"},
		{
			"missing fragment entry point",
			strings.Replace(SpriteShaderSource(), "fn fs_main", "fn fs_other", 1),
		},
		{
			"missing vertex entry point",
			strings.Replace(SpriteShaderSource(), "fn vs_main", "fn vs_other", 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateShader(tt.source); !errors.Is(err, ErrShaderInvalid) {
				t.Errorf("err = %v, want ErrShaderInvalid", err)
			}
		})
	}
}

func TestNewPipeline(t *testing.T) {
	p, cleanup := newTestPipeline(t)
	defer cleanup()

	if p.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format = %v", p.Format())
	}
	if p.TextureLayout() == nil {
		t.Error("expected texture bind group layout")
	}
	if p.pipeline == nil || p.pipelineLayout == nil || p.shader == nil {
		t.Error("pipeline objects not created")
	}
}

func TestNewPipelineNilDevice(t *testing.T) {
	if _, err := NewPipeline(nil, gputypes.TextureFormatBGRA8Unorm); !errors.Is(err, ErrNilDevice) {
		t.Errorf("err = %v, want ErrNilDevice", err)
	}
}

func TestPipelineDestroyIdempotent(t *testing.T) {
	p, cleanup := newTestPipeline(t)
	defer cleanup()
	p.Destroy()
	p.Destroy()
	if p.TextureLayout() != nil {
		t.Error("layout survived Destroy")
	}
}

func TestVertexBufferLayout(t *testing.T) {
	layouts := vertexBufferLayout()
	if len(layouts) != 1 {
		t.Fatalf("layouts = %d, want 1", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != vertexStride {
		t.Errorf("stride = %d, want %d", l.ArrayStride, vertexStride)
	}
	if len(l.Attributes) != 2 {
		t.Fatalf("attributes = %d, want 2", len(l.Attributes))
	}
	if l.Attributes[1].Offset != 12 || l.Attributes[1].ShaderLocation != 1 {
		t.Errorf("tex_coords attribute = %+v", l.Attributes[1])
	}
}
