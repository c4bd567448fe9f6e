package store

import (
	"github.com/patchbay-vj/patchbay/internal/models"
)

// AddTab appends a new empty tab of the given kind.
func (s *Store) AddTab(name string, kind models.TabKind) models.Status {
	if err := models.ValidateTab(&models.Tab{Name: name, Kind: kind}); err != nil {
		return models.Errorf("invalid tab: %v", err)
	}

	s.mu.Lock()
	s.tabs = append(s.tabs, &tabEntry{name: name, kind: kind})
	index := len(s.tabs) - 1
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTabsChanged, index, -1))
	return models.Successf("added tab %s", name)
}

// RenameTab renames the tab at index.
func (s *Store) RenameTab(index int, name string) models.Status {
	if name == "" {
		return models.Errorf("tab name is required")
	}

	s.mu.Lock()
	t := s.tabAt(index)
	if t == nil {
		s.mu.Unlock()
		return models.Errorf("no tab at index %d", index)
	}
	t.name = name
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTabsChanged, index, -1))
	return models.Successf("renamed tab to %s", name)
}

// RemoveTab deletes the tab at index, disposing every renderer it owns.
// The last remaining tab cannot be removed. Mixer references into the
// removed tab are cleared; references into later tabs shift down.
func (s *Store) RemoveTab(index int) models.Status {
	s.mu.Lock()
	t := s.tabAt(index)
	if t == nil {
		s.mu.Unlock()
		return models.Errorf("no tab at index %d", index)
	}
	if len(s.tabs) == 1 {
		s.mu.Unlock()
		return models.Errorf("cannot remove the last tab")
	}

	for _, entry := range t.slots {
		if entry == nil {
			continue
		}
		entry.detached = true
		if entry.renderer != nil {
			s.renderers.Dispose(entry.renderer)
			entry.renderer = nil
		}
	}

	s.tabs = append(s.tabs[:index], s.tabs[index+1:]...)

	for i := range s.mixer.Channels {
		ch := &s.mixer.Channels[i]
		if ch.Ref == nil {
			continue
		}
		switch {
		case ch.Ref.Tab == index:
			ch.Ref = nil
		case ch.Ref.Tab > index:
			ch.Ref.Tab--
		}
	}

	if s.activeTab >= len(s.tabs) {
		s.activeTab = len(s.tabs) - 1
	}
	if s.activeGridTab == index {
		s.activeGridTab = s.firstGridTabLocked()
		s.clearTilesLocked()
	} else if s.activeGridTab > index {
		s.activeGridTab--
	}
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTabsChanged, index, -1))
	return models.Successf("removed tab %d", index)
}

// firstGridTabLocked returns the index of the first shaders/assets tab,
// or 0 when none exists. Callers must hold the store lock.
func (s *Store) firstGridTabLocked() int {
	for i, t := range s.tabs {
		if t.kind.OwnsSlots() {
			return i
		}
	}
	return 0
}

// clearTilesLocked unassigns every tile. Tile references are scoped to
// the active grid tab; when that tab goes away they cannot be remapped.
// Callers must hold the store lock.
func (s *Store) clearTilesLocked() {
	for i := range s.tiles.Tiles {
		s.tiles.Tiles[i].GridSlotIndex = nil
	}
}

// SelectTab makes the tab at index active. Selecting a shaders/assets
// tab also rescopes tile references, clearing them since they only
// resolve within the active grid tab.
func (s *Store) SelectTab(index int) models.Status {
	s.mu.Lock()
	t := s.tabAt(index)
	if t == nil {
		s.mu.Unlock()
		return models.Errorf("no tab at index %d", index)
	}
	s.activeTab = index
	s.activeSection = t.kind
	if t.kind.OwnsSlots() && s.activeGridTab != index {
		s.activeGridTab = index
		s.clearTilesLocked()
	}
	s.activeSlot = 0
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeSelection, index, -1))
	return models.Successf("selected tab %s", t.name)
}

// SelectSlot makes the slot at index the active selection in the active
// tab and applies its content to the live scene.
func (s *Store) SelectSlot(index int) models.Status {
	s.mu.Lock()
	t := s.slotTabAt(s.activeTab)
	if t == nil || index < 0 || index >= len(t.slots) {
		s.mu.Unlock()
		return models.Errorf("no slot at index %d", index)
	}
	s.activeSlot = index
	if entry := t.slots[index]; entry != nil && !entry.slot.IsEmpty() {
		s.scene.mode = models.RenderModeSingle
		s.scene.shaderCode = entry.slot.Content
		s.scene.mediaPath = entry.slot.MediaPath
		s.scene.params = entry.slot.RuntimeParams.Clone()
		s.scene.customParams = entry.slot.CustomParams.Clone()
	}
	tab := s.activeTab
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeSelection, tab, index))
	return models.Successf("selected slot %d", index)
}

// SetRenderMode switches the live scene composition mode.
func (s *Store) SetRenderMode(mode models.RenderMode) models.Status {
	if !mode.Valid() {
		return models.Errorf("unknown render mode %q", mode)
	}

	s.mu.Lock()
	s.scene.mode = mode
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeSelection, -1, -1))
	return models.Successf("render mode %s", mode)
}

// TogglePlayback flips global playback.
func (s *Store) TogglePlayback() models.Status {
	s.mu.Lock()
	s.playing = !s.playing
	playing := s.playing
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePlayback, -1, -1))
	if playing {
		return models.Successf("playback resumed")
	}
	return models.Successf("playback paused")
}

// ToggleBlackout flips the output blackout.
func (s *Store) ToggleBlackout() models.Status {
	s.mu.Lock()
	s.blackout = !s.blackout
	blackout := s.blackout
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeBlackout, -1, -1))
	if blackout {
		return models.Successf("blackout on")
	}
	return models.Successf("blackout off")
}
