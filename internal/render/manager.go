package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/patchbay-vj/patchbay/internal/logging"
)

// Handle wraps a live renderer together with its bound surface. Handles
// are created and retired only through a Manager; everything outside the
// owning slot refers to renderers by slot index, never by handle.
type Handle struct {
	id       string
	renderer Renderer
	surface  Surface
	disposed bool
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// Renderer returns the wrapped renderer, or nil after disposal.
func (h *Handle) Renderer() Renderer {
	if h == nil || h.disposed {
		return nil
	}
	return h.renderer
}

// Surface returns the currently bound surface.
func (h *Handle) Surface() Surface {
	if h == nil {
		return nil
	}
	return h.surface
}

// Disposed reports whether the handle has been retired.
func (h *Handle) Disposed() bool {
	return h == nil || h.disposed
}

// Manager tracks every live renderer and guarantees at most one per
// occupied slot and zero for removed slots, across view-rebuild churn.
type Manager struct {
	mu       sync.Mutex
	logger   zerolog.Logger
	compiler Compiler
	live     map[string]*Handle
}

// NewManager creates a manager that compiles content with the given
// compiler.
func NewManager(compiler Compiler) *Manager {
	return &Manager{
		logger:   logging.Component("render"),
		compiler: compiler,
		live:     make(map[string]*Handle),
	}
}

// Acquire compiles source into a fresh renderer bound to surface and
// registers it as live. On compile failure no resource is registered.
func (m *Manager) Acquire(ctx context.Context, source string, surface Surface) (*Handle, error) {
	if m.compiler == nil {
		return nil, fmt.Errorf("no compiler attached")
	}

	renderer, err := m.compiler.Compile(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	h := &Handle{
		id:       uuid.New().String(),
		renderer: renderer,
		surface:  surface,
	}

	m.mu.Lock()
	m.live[h.id] = h
	m.mu.Unlock()

	m.logger.Debug().Str("renderer_id", h.id).Msg("renderer acquired")
	return h, nil
}

// Rebind points an existing renderer at a new surface. It never touches
// the underlying GPU state; view rebuilds must use this instead of
// dispose-and-acquire.
func (m *Manager) Rebind(h *Handle, surface Surface) {
	if h == nil || h.disposed {
		return
	}

	m.mu.Lock()
	h.surface = surface
	m.mu.Unlock()
}

// Dispose retires a renderer. Idempotent: disposing an already-disposed
// or nil handle is a no-op.
func (m *Manager) Dispose(h *Handle) {
	if h == nil {
		return
	}

	m.mu.Lock()
	if h.disposed {
		m.mu.Unlock()
		return
	}
	h.disposed = true
	delete(m.live, h.id)
	renderer := h.renderer
	h.renderer = nil
	m.mu.Unlock()

	if renderer != nil {
		renderer.Dispose()
	}
	m.logger.Debug().Str("renderer_id", h.id).Msg("renderer disposed")
}

// DisposeAll retires every live renderer. Used at shutdown and before a
// full document reload.
func (m *Manager) DisposeAll() {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.live))
	for _, h := range m.live {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	for _, h := range handles {
		m.Dispose(h)
	}
}

// LiveCount returns the number of live renderers. Exposed for leak
// accounting in tests and status exports.
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
