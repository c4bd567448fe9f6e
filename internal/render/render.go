// Package render owns the lifecycle of renderer resources: one live
// renderer per occupied slot, bound to a surface, disposed exactly once.
// The compiler and renderer internals are external collaborators reached
// through the interfaces in this package.
package render

import (
	"context"

	"github.com/patchbay-vj/patchbay/internal/models"
)

// Surface is the opaque view handle a renderer draws onto. View rebuilds
// produce new surfaces for existing slots; renderers are rebound to them
// rather than recreated.
type Surface interface {
	// ID identifies the surface for logging and equality checks.
	ID() string
}

// Renderer is the compiled rendering resource produced by a Compiler.
// Implementations live outside this module; the core only drives the
// lifecycle and parameter surface.
type Renderer interface {
	// SetParam applies one named parameter value.
	SetParam(name string, value float64)

	// CustomParamDefs returns the parameters declared by the content.
	CustomParamDefs() []models.ParamDef

	// CustomParamValues returns the current declared-parameter values.
	CustomParamValues() models.Params

	// Render draws one frame onto the bound surface.
	Render() error

	// Capture renders a fresh frame and returns it as encoded image
	// bytes. Used for thumbnail requests, which must never be served
	// from a stale cached frame.
	Capture() ([]byte, error)

	// Dispose releases the underlying GPU state. Called exactly once
	// by the manager.
	Dispose()
}

// Compiler builds a renderer from shader/scene source. Compilation
// performs I/O and is cancellable through the context.
type Compiler interface {
	Compile(ctx context.Context, source string) (Renderer, error)
}
