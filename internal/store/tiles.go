package store

import (
	"github.com/patchbay-vj/patchbay/internal/models"
)

// TileAssign points a tile at a slot in the active grid tab. Tiles hold
// only the slot index; the renderer stays owned by the slot.
func (s *Store) TileAssign(tileIndex, slotIndex int) models.Status {
	s.mu.Lock()
	tile := s.tiles.TileAt(tileIndex)
	if tile == nil {
		s.mu.Unlock()
		return models.Errorf("no tile %d", tileIndex)
	}
	entry := s.entryAt(s.activeGridTab, slotIndex)
	if entry == nil || entry.slot.IsEmpty() {
		s.mu.Unlock()
		return models.Errorf("no slot at index %d in the active tab", slotIndex)
	}
	idx := slotIndex
	tile.GridSlotIndex = &idx
	if tile.Params == nil {
		tile.Params = models.Params{}
	}
	if tile.CustomParams == nil {
		tile.CustomParams = models.Params{}
	}
	gridTab := s.activeGridTab
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTiles, gridTab, slotIndex))
	return models.Successf("tile %d assigned", tileIndex)
}

// TileClear unassigns a tile.
func (s *Store) TileClear(tileIndex int) models.Status {
	s.mu.Lock()
	tile := s.tiles.TileAt(tileIndex)
	if tile == nil {
		s.mu.Unlock()
		return models.Errorf("no tile %d", tileIndex)
	}
	tile.GridSlotIndex = nil
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTiles, -1, -1))
	return models.Successf("tile %d cleared", tileIndex)
}

// TileSetVisible toggles whether a tile contributes to the output.
func (s *Store) TileSetVisible(tileIndex int, visible bool) models.Status {
	s.mu.Lock()
	tile := s.tiles.TileAt(tileIndex)
	if tile == nil {
		s.mu.Unlock()
		return models.Errorf("no tile %d", tileIndex)
	}
	tile.Visible = visible
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTiles, -1, -1))
	return models.Successf("tile %d visibility updated", tileIndex)
}

// TileSetParam sets one parameter value on a tile.
func (s *Store) TileSetParam(tileIndex int, name string, value float64, custom bool) models.Status {
	s.mu.Lock()
	tile := s.tiles.TileAt(tileIndex)
	if tile == nil {
		s.mu.Unlock()
		return models.Errorf("no tile %d", tileIndex)
	}
	if custom {
		if tile.CustomParams == nil {
			tile.CustomParams = models.Params{}
		}
		tile.CustomParams[name] = value
	} else {
		if tile.Params == nil {
			tile.Params = models.Params{}
		}
		tile.Params[name] = value
	}
	s.mu.Unlock()

	change := models.NewChange(models.ChangeTypeTiles, -1, -1)
	change.Params = models.Params{name: value}
	s.emit(change)
	return models.Successf("set %s", name)
}
