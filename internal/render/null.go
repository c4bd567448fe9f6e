package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/patchbay-vj/patchbay/internal/models"
)

// NullCompiler is a headless compiler used when no render backend is
// attached (daemon mode, tests). It accepts any non-empty source and
// produces renderers that track parameters without drawing.
type NullCompiler struct{}

// Compile implements Compiler.
func (NullCompiler) Compile(_ context.Context, source string) (Renderer, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("empty source")
	}
	return &nullRenderer{params: models.Params{}}, nil
}

type nullRenderer struct {
	params   models.Params
	disposed bool
}

func (r *nullRenderer) SetParam(name string, value float64) {
	if r.disposed {
		return
	}
	r.params[name] = value
}

func (r *nullRenderer) CustomParamDefs() []models.ParamDef { return nil }

func (r *nullRenderer) CustomParamValues() models.Params { return r.params.Clone() }

func (r *nullRenderer) Render() error {
	if r.disposed {
		return fmt.Errorf("renderer disposed")
	}
	return nil
}

// Capture returns a minimal valid PNG (1x1 transparent pixel) so that
// thumbnail plumbing works without a GPU.
func (r *nullRenderer) Capture() ([]byte, error) {
	if r.disposed {
		return nil, fmt.Errorf("renderer disposed")
	}
	return append([]byte(nil), blankPNG...), nil
}

func (r *nullRenderer) Dispose() { r.disposed = true }

// blankPNG is a 1x1 transparent PNG.
var blankPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

// StaticSurface is a trivial Surface carrying only an identifier. The
// view layer supplies real surfaces; this one serves headless mode.
type StaticSurface string

// ID implements Surface.
func (s StaticSurface) ID() string { return string(s) }
