package store

import (
	"context"

	"github.com/jinzhu/copier"

	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/render"
)

// AssignRequest carries the inputs for assigning content to a slot.
type AssignRequest struct {
	Kind          models.SlotKind
	Content       string
	SourcePath    string
	MediaPath     string
	Label         string
	RuntimeParams models.Params
	CustomParams  models.Params
	Presets       []models.ParamPreset
}

// AssignContent loads content into the slot at (tabIndex, slotIndex),
// disposing any prior renderer first. The slot's data change commits
// synchronously; only the compile lands asynchronously, gated by a
// generation token so a superseding assignment discards this one's
// completion. On compile failure the slot is retained with HasError set
// and its content preserved for editing.
func (s *Store) AssignContent(ctx context.Context, tabIndex, slotIndex int, req AssignRequest) models.Status {
	s.mu.Lock()
	t := s.slotTabAt(tabIndex)
	if t == nil {
		s.mu.Unlock()
		return models.Errorf("no slot tab at index %d", tabIndex)
	}
	if slotIndex < 0 || !t.growSlots(slotIndex) {
		s.mu.Unlock()
		return models.Errorf("slot index %d out of range", slotIndex)
	}

	if req.Kind == "" {
		if t.kind == models.TabKindAssets {
			req.Kind = models.SlotKindAsset
		} else {
			req.Kind = models.SlotKindShader
		}
	}

	entry := t.slots[slotIndex]
	if entry == nil {
		entry = &slotEntry{}
		t.slots[slotIndex] = entry
	}

	// Commit the pre-state synchronously: retire the old renderer and
	// install the new data before any I/O happens.
	if entry.renderer != nil {
		s.renderers.Dispose(entry.renderer)
		entry.renderer = nil
	}
	entry.generation++
	gen := entry.generation
	entry.slot = models.Slot{
		Kind:          req.Kind,
		Content:       req.Content,
		SourcePath:    req.SourcePath,
		MediaPath:     req.MediaPath,
		Label:         req.Label,
		RuntimeParams: req.RuntimeParams.Clone(),
		CustomParams:  req.CustomParams.Clone(),
		LocalPresets:  append([]models.ParamPreset(nil), req.Presets...),
	}
	if entry.slot.RuntimeParams == nil {
		entry.slot.RuntimeParams = models.Params{}
	}
	if entry.slot.CustomParams == nil {
		entry.slot.CustomParams = models.Params{}
	}
	surface := t.surfaceFor(slotIndex)
	needsRenderer := req.Kind == models.SlotKindShader
	label := entry.slot.DisplayLabel()
	s.mu.Unlock()

	if !needsRenderer {
		s.emit(models.NewChange(models.ChangeTypeSlotContent, tabIndex, slotIndex))
		return models.Successf("assigned %s to slot %d", label, slotIndex)
	}

	// I/O-bound completion: compile, then land the result only if this
	// assignment is still the latest and the entry is still live.
	handle, err := s.renderers.Acquire(ctx, req.Content, surface)

	s.mu.Lock()
	if entry.detached || entry.generation != gen {
		s.mu.Unlock()
		if handle != nil {
			s.renderers.Dispose(handle)
		}
		return models.Infof("slot %d assignment superseded", slotIndex)
	}
	if err != nil {
		entry.slot.HasError = true
		s.mu.Unlock()
		s.logger.Warn().Err(err).Int("tab", tabIndex).Int("slot", slotIndex).Msg("content load failed")
		s.emit(models.NewChange(models.ChangeTypeSlotContent, tabIndex, slotIndex))
		return models.Errorf("slot %d: %v", slotIndex, err)
	}
	entry.slot.HasError = false
	entry.renderer = handle
	s.pushParams(entry)
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeSlotContent, tabIndex, slotIndex))
	return models.Successf("assigned %s to slot %d", label, slotIndex)
}

// pushParams pushes the entry's stored parameter values into its
// renderer. Callers must hold the store lock or own the entry
// exclusively (not yet installed in the graph).
func (s *Store) pushParams(entry *slotEntry) {
	r := entry.renderer.Renderer()
	if r == nil {
		return
	}
	for name, value := range entry.slot.RuntimeParams {
		r.SetParam(name, value)
	}
	for name, value := range entry.slot.CustomParams {
		r.SetParam(name, value)
	}
}

// ReloadSlot re-assigns a slot's current content, recompiling it. Used by
// the source watcher when a slot's origin file changes on disk.
func (s *Store) ReloadSlot(ctx context.Context, tabIndex, slotIndex int, content string) models.Status {
	s.mu.Lock()
	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}
	req := AssignRequest{
		Kind:          entry.slot.Kind,
		Content:       content,
		SourcePath:    entry.slot.SourcePath,
		MediaPath:     entry.slot.MediaPath,
		Label:         entry.slot.Label,
		RuntimeParams: entry.slot.RuntimeParams.Clone(),
		CustomParams:  entry.slot.CustomParams.Clone(),
		Presets:       append([]models.ParamPreset(nil), entry.slot.LocalPresets...),
	}
	s.mu.Unlock()
	return s.AssignContent(ctx, tabIndex, slotIndex, req)
}

// RemoveSlot disposes the slot's renderer, deletes the list entry and
// shifts every index-based reference held by the mixer and tiles:
// references above the removed index decrement by one, references at the
// removed index become empty. References into other tabs are untouched.
func (s *Store) RemoveSlot(tabIndex, slotIndex int) models.Status {
	s.mu.Lock()
	t := s.slotTabAt(tabIndex)
	if t == nil || slotIndex < 0 || slotIndex >= len(t.slots) {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}

	entry := t.slots[slotIndex]
	if entry != nil {
		entry.detached = true
		if entry.renderer != nil {
			s.renderers.Dispose(entry.renderer)
			entry.renderer = nil
		}
	}

	t.slots = append(t.slots[:slotIndex], t.slots[slotIndex+1:]...)
	if slotIndex < len(t.surfaces) {
		t.surfaces = append(t.surfaces[:slotIndex], t.surfaces[slotIndex+1:]...)
	}

	s.shiftSlotRefsLocked(tabIndex, slotIndex)
	if s.activeTab == tabIndex && s.activeSlot >= slotIndex && s.activeSlot > 0 {
		s.activeSlot--
	}
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeSlotRemoved, tabIndex, slotIndex))
	return models.Successf("removed slot %d", slotIndex)
}

// shiftSlotRefsLocked propagates a removal at (tabIndex, removed) into
// every index-based weak reference. Callers must hold the store lock.
func (s *Store) shiftSlotRefsLocked(tabIndex, removed int) {
	for i := range s.mixer.Channels {
		ch := &s.mixer.Channels[i]
		if ch.Ref == nil || ch.Ref.Tab != tabIndex {
			continue
		}
		switch {
		case ch.Ref.Slot == removed:
			ch.Ref = nil
		case ch.Ref.Slot > removed:
			ch.Ref.Slot--
		}
	}

	// Tiles reference slots within the active grid tab only.
	if tabIndex != s.activeGridTab {
		return
	}
	for i := range s.tiles.Tiles {
		tile := &s.tiles.Tiles[i]
		if tile.GridSlotIndex == nil {
			continue
		}
		switch {
		case *tile.GridSlotIndex == removed:
			tile.GridSlotIndex = nil
		case *tile.GridSlotIndex > removed:
			idx := *tile.GridSlotIndex - 1
			tile.GridSlotIndex = &idx
		}
	}
}

// SwapSlots exchanges the slot contents at two positions of one tab.
// Surfaces stay with their positions, so each surviving renderer is
// rebound to the other position's surface; no renderer is disposed.
// Index-based references stay valid without updates: after a swap an
// index still denotes the same position.
func (s *Store) SwapSlots(tabIndex, i, j int) models.Status {
	s.mu.Lock()
	t := s.slotTabAt(tabIndex)
	if t == nil || i < 0 || j < 0 || i >= len(t.slots) || j >= len(t.slots) {
		s.mu.Unlock()
		return models.Errorf("swap indices out of range")
	}
	if i == j {
		s.mu.Unlock()
		return models.Infof("swap of slot %d with itself", i)
	}

	t.slots[i], t.slots[j] = t.slots[j], t.slots[i]
	if e := t.slots[i]; e != nil && e.renderer != nil {
		s.renderers.Rebind(e.renderer, t.surfaceFor(i))
	}
	if e := t.slots[j]; e != nil && e.renderer != nil {
		s.renderers.Rebind(e.renderer, t.surfaceFor(j))
	}
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTabsChanged, tabIndex, -1))
	return models.Successf("swapped slots %d and %d", i, j)
}

// MoveSlotToTab relocates a slot to another tab of the same kind. The
// renderer is disposed and recreated against the destination tab's
// surface; the source position is removed with full reference shifting.
func (s *Store) MoveSlotToTab(ctx context.Context, srcTab, srcSlot, dstTab, dstSlot int) models.Status {
	s.mu.Lock()
	src := s.slotTabAt(srcTab)
	dst := s.slotTabAt(dstTab)
	if src == nil || dst == nil {
		s.mu.Unlock()
		return models.Errorf("move requires two slot tabs")
	}
	if src.kind != dst.kind {
		s.mu.Unlock()
		return models.Errorf("cannot move between %s and %s tabs", src.kind, dst.kind)
	}
	if srcTab == dstTab {
		s.mu.Unlock()
		return s.SwapSlots(srcTab, srcSlot, dstSlot)
	}
	entry := s.entryAt(srcTab, srcSlot)
	if entry == nil {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", srcTab, srcSlot)
	}
	data := entry.slot
	s.mu.Unlock()

	if st := s.RemoveSlot(srcTab, srcSlot); !st.OK() {
		return st
	}
	return s.AssignContent(ctx, dstTab, dstSlot, AssignRequest{
		Kind:          data.Kind,
		Content:       data.Content,
		SourcePath:    data.SourcePath,
		MediaPath:     data.MediaPath,
		Label:         data.Label,
		RuntimeParams: data.RuntimeParams,
		CustomParams:  data.CustomParams,
		Presets:       data.LocalPresets,
	})
}

// CopySlotToTab duplicates a slot's data into another tab. Parameter
// data is deep-cloned and a fresh renderer is created for the copy;
// renderers are never shared between the original and the copy.
func (s *Store) CopySlotToTab(ctx context.Context, srcTab, srcSlot, dstTab, dstSlot int) models.Status {
	s.mu.Lock()
	entry := s.entryAt(srcTab, srcSlot)
	if entry == nil {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", srcTab, srcSlot)
	}
	var data models.Slot
	if err := copier.CopyWithOption(&data, &entry.slot, copier.Option{DeepCopy: true}); err != nil {
		s.mu.Unlock()
		return models.Errorf("copy failed: %v", err)
	}
	s.mu.Unlock()

	return s.AssignContent(ctx, dstTab, dstSlot, AssignRequest{
		Kind:          data.Kind,
		Content:       data.Content,
		SourcePath:    data.SourcePath,
		MediaPath:     data.MediaPath,
		Label:         data.Label,
		RuntimeParams: data.RuntimeParams,
		CustomParams:  data.CustomParams,
		Presets:       data.LocalPresets,
	})
}

// SetSlotLabel renames a slot.
func (s *Store) SetSlotLabel(tabIndex, slotIndex int, label string) models.Status {
	s.mu.Lock()
	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}
	entry.slot.Label = label
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTabsChanged, tabIndex, slotIndex))
	return models.Successf("renamed slot %d", slotIndex)
}

// SetSlotParam sets one runtime parameter on a slot and pushes it into
// the live renderer.
func (s *Store) SetSlotParam(tabIndex, slotIndex int, name string, value float64) models.Status {
	return s.setParam(tabIndex, slotIndex, name, value, false)
}

// SetSlotCustomParam sets one content-declared parameter on a slot and
// pushes it into the live renderer.
func (s *Store) SetSlotCustomParam(tabIndex, slotIndex int, name string, value float64) models.Status {
	return s.setParam(tabIndex, slotIndex, name, value, true)
}

func (s *Store) setParam(tabIndex, slotIndex int, name string, value float64, custom bool) models.Status {
	s.mu.Lock()
	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}
	if custom {
		if entry.slot.CustomParams == nil {
			entry.slot.CustomParams = models.Params{}
		}
		entry.slot.CustomParams[name] = value
	} else {
		if entry.slot.RuntimeParams == nil {
			entry.slot.RuntimeParams = models.Params{}
		}
		entry.slot.RuntimeParams[name] = value
	}
	if r := entry.renderer.Renderer(); r != nil {
		r.SetParam(name, value)
	}
	s.mu.Unlock()

	change := models.NewChange(models.ChangeTypeSlotParams, tabIndex, slotIndex)
	change.Params = models.Params{name: value}
	s.emit(change)
	return models.Successf("set %s", name)
}

// BindSurfaces attaches view surfaces to a tab's positions after a view
// rebuild. Existing renderers are rebound cheaply; nothing is recreated.
func (s *Store) BindSurfaces(tabIndex int, surfaces map[int]render.Surface) models.Status {
	s.mu.Lock()
	t := s.slotTabAt(tabIndex)
	if t == nil {
		s.mu.Unlock()
		return models.Errorf("no slot tab at index %d", tabIndex)
	}
	for index, surface := range surfaces {
		if index < 0 || !t.growSlots(index) {
			continue
		}
		t.surfaces[index] = surface
		if e := t.slots[index]; e != nil && e.renderer != nil {
			s.renderers.Rebind(e.renderer, surface)
		}
	}
	s.mu.Unlock()
	return models.Successf("bound %d surfaces", len(surfaces))
}

// CaptureThumbnail renders a fresh frame for the slot and returns it as
// encoded image bytes, updating the slot's cached thumbnail. An explicit
// request never serves a stale cached frame.
func (s *Store) CaptureThumbnail(tabIndex, slotIndex int) ([]byte, models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil {
		return nil, models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}
	r := entry.renderer.Renderer()
	if r == nil {
		return nil, models.Errorf("slot %d has no live renderer", slotIndex)
	}
	if err := r.Render(); err != nil {
		return nil, models.Errorf("render failed: %v", err)
	}
	img, err := r.Capture()
	if err != nil {
		return nil, models.Errorf("capture failed: %v", err)
	}
	return img, models.Successf("captured slot %d", slotIndex)
}
