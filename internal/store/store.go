// Package store holds the canonical in-memory state graph: tabs of slots,
// the mixer, the tile grid and presets. All mutation goes through it; the
// view layer and remote clients read snapshots and call the same mutation
// operations.
package store

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/patchbay-vj/patchbay/internal/logging"
	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/render"
)

// maxSlotsPerTab bounds slot list growth from assignment to an index
// beyond the current length.
const maxSlotsPerTab = 64

// slotEntry couples a slot's data with its runtime state: the owned
// renderer handle and the generation token that gates async completions.
type slotEntry struct {
	slot       models.Slot
	renderer   *render.Handle
	generation uint64
	// detached marks an entry removed from the graph so that an
	// in-flight assignment completion can discard its result.
	detached bool
}

// tabEntry is a tab plus its per-position runtime state. surfaces is
// parallel to slots and owned by position, not by slot content: swapping
// slots moves content between positions while surfaces stay put.
type tabEntry struct {
	name       string
	kind       models.TabKind
	slots      []*slotEntry
	surfaces   []render.Surface
	mixPresets []models.MixPreset
}

// sceneState is the live output scene: what the output process should be
// compositing right now, independent of which grid slot is selected.
type sceneState struct {
	mode         models.RenderMode
	shaderCode   string
	mediaPath    string
	params       models.Params
	customParams models.Params
}

// Store is the canonical entity store. A single instance owns the graph;
// it is explicitly constructed and passed to the components that need it.
type Store struct {
	mu     sync.Mutex
	logger zerolog.Logger

	renderers *render.Manager

	tabs          []*tabEntry
	activeTab     int
	activeSlot    int
	activeSection models.TabKind
	// activeGridTab is the last selected shaders/assets tab; tile
	// references resolve against it.
	activeGridTab int

	mixer *models.Mixer
	tiles *models.TileGrid
	scene sceneState

	visualPresets []models.VisualPreset

	playing  bool
	blackout bool

	notify func(models.Change)
}

// Option configures a Store.
type Option func(*Store)

// WithTileGrid sets the tile grid dimensions.
func WithTileGrid(rows, cols int) Option {
	return func(s *Store) {
		s.tiles = models.NewTileGrid(rows, cols)
	}
}

// WithNotify sets the change notification hook. The hook runs after the
// mutation completes and the store lock is released, so it may read the
// store or trigger further mutations.
func WithNotify(fn func(models.Change)) Option {
	return func(s *Store) {
		s.notify = fn
	}
}

// New creates a store with a single empty default tab.
func New(renderers *render.Manager, opts ...Option) *Store {
	s := &Store{
		logger:        logging.Component("store"),
		renderers:     renderers,
		mixer:         models.NewMixer(),
		tiles:         models.NewTileGrid(models.DefaultTileRows, models.DefaultTileCols),
		activeSection: models.TabKindShaders,
		scene: sceneState{
			mode:         models.RenderModeSingle,
			params:       models.Params{},
			customParams: models.Params{},
		},
		playing: true,
	}
	s.tabs = []*tabEntry{{name: models.DefaultTabName, kind: models.TabKindShaders}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNotify replaces the change notification hook.
func (s *Store) SetNotify(fn func(models.Change)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Renderers returns the renderer manager the store disposes through.
func (s *Store) Renderers() *render.Manager {
	return s.renderers
}

// emit delivers changes to the notification hook. Always called after
// the store lock is released.
func (s *Store) emit(changes ...models.Change) {
	if s.notify == nil {
		return
	}
	for _, c := range changes {
		s.notify(c)
	}
}

// tabAt returns the tab entry at index, or nil when out of bounds.
// Callers must hold the store lock.
func (s *Store) tabAt(index int) *tabEntry {
	if index < 0 || index >= len(s.tabs) {
		return nil
	}
	return s.tabs[index]
}

// slotTabAt returns the tab entry at index if it owns slots.
// Callers must hold the store lock.
func (s *Store) slotTabAt(index int) *tabEntry {
	t := s.tabAt(index)
	if t == nil || !t.kind.OwnsSlots() {
		return nil
	}
	return t
}

// entryAt returns the slot entry at (tab, slot), or nil for out-of-bounds
// indices and empty positions. Callers must hold the store lock.
func (s *Store) entryAt(tabIndex, slotIndex int) *slotEntry {
	t := s.slotTabAt(tabIndex)
	if t == nil || slotIndex < 0 || slotIndex >= len(t.slots) {
		return nil
	}
	return t.slots[slotIndex]
}

// surfaceFor returns the surface bound to a tab position, if any.
// Callers must hold the store lock.
func (t *tabEntry) surfaceFor(slotIndex int) render.Surface {
	if slotIndex < 0 || slotIndex >= len(t.surfaces) {
		return nil
	}
	return t.surfaces[slotIndex]
}

// growSlots extends the slot and surface lists so index is addressable.
// Returns false when index exceeds the per-tab cap.
func (t *tabEntry) growSlots(index int) bool {
	if index >= maxSlotsPerTab {
		return false
	}
	for len(t.slots) <= index {
		t.slots = append(t.slots, nil)
	}
	for len(t.surfaces) <= index {
		t.surfaces = append(t.surfaces, nil)
	}
	return true
}
