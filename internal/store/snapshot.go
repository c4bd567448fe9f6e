package store

import (
	"github.com/patchbay-vj/patchbay/internal/models"
)

// SlotSummary is the read-model view of one slot position.
type SlotSummary struct {
	Index        int             `json:"index"`
	Occupied     bool            `json:"occupied"`
	Label        string          `json:"label,omitempty"`
	Kind         models.SlotKind `json:"type,omitempty"`
	HasError     bool            `json:"hasError,omitempty"`
	HasThumbnail bool            `json:"hasThumbnail,omitempty"`
}

// TabSummary is the read-model view of one tab.
type TabSummary struct {
	Index          int            `json:"index"`
	Name           string         `json:"name"`
	Kind           models.TabKind `json:"type"`
	Slots          []SlotSummary  `json:"slots,omitempty"`
	MixPresetNames []string       `json:"mixPresets,omitempty"`
}

// StateSnapshot is the structured state view served to remote clients:
// tabs summary, active selection, mixer and tile state, current parameter
// values and the parameter definitions of the active content.
type StateSnapshot struct {
	Tabs          []TabSummary          `json:"tabs"`
	ActiveTab     int                   `json:"activeTab"`
	ActiveSlot    int                   `json:"activeSlot"`
	ActiveSection models.TabKind        `json:"activeSection"`
	RenderMode    models.RenderMode     `json:"renderMode"`
	Playing       bool                  `json:"playing"`
	Blackout      bool                  `json:"blackout"`
	Mixer         []models.MixerChannel `json:"mixer"`
	Tiles         models.TileGrid       `json:"tiles"`
	Params        models.Params         `json:"params"`
	CustomParams  models.Params         `json:"customParams"`
	ParamDefs     []models.ParamDef     `json:"paramDefs"`
	VisualPresets []string              `json:"visualPresets"`
}

// ResolvedTile is a tile with its slot reference resolved to content.
type ResolvedTile struct {
	Visible      bool            `json:"visible"`
	Params       models.Params   `json:"params"`
	CustomParams models.Params   `json:"customParams"`
	ShaderCode   string          `json:"shaderCode,omitempty"`
	AssetType    models.SlotKind `json:"assetType,omitempty"`
	MediaPath    string          `json:"mediaPath,omitempty"`
}

// OutputSnapshot is the serializable scene pushed to the output process:
// content and resolved parameters only, never live resource references.
type OutputSnapshot struct {
	Mode         models.RenderMode        `json:"renderMode"`
	Playing      bool                     `json:"playing"`
	Blackout     bool                     `json:"blackout"`
	ShaderCode   string                   `json:"shaderCode,omitempty"`
	MediaPath    string                   `json:"mediaPath,omitempty"`
	Params       models.Params            `json:"params"`
	CustomParams models.Params            `json:"customParams"`
	Channels     []models.ChannelSnapshot `json:"channels,omitempty"`
	Tiles        []ResolvedTile           `json:"tiles,omitempty"`
}

// Snapshot builds the remote-facing state view.
func (s *Store) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StateSnapshot{
		ActiveTab:     s.activeTab,
		ActiveSlot:    s.activeSlot,
		ActiveSection: s.activeSection,
		RenderMode:    s.scene.mode,
		Playing:       s.playing,
		Blackout:      s.blackout,
		Tiles:         *s.tiles,
		Params:        s.scene.params.Clone(),
		CustomParams:  s.scene.customParams.Clone(),
	}
	// The snapshot must stay coherent after the lock is released: it is
	// marshalled on server goroutines while mutations continue, so every
	// shared map and pointer gets its own copy.
	snap.Tiles.Tiles = make([]models.Tile, len(s.tiles.Tiles))
	for i, tile := range s.tiles.Tiles {
		tile.Params = tile.Params.Clone()
		tile.CustomParams = tile.CustomParams.Clone()
		if tile.GridSlotIndex != nil {
			idx := *tile.GridSlotIndex
			tile.GridSlotIndex = &idx
		}
		snap.Tiles.Tiles[i] = tile
	}

	for i, t := range s.tabs {
		summary := TabSummary{Index: i, Name: t.name, Kind: t.kind}
		for j, entry := range t.slots {
			ss := SlotSummary{Index: j}
			if entry != nil && !entry.slot.IsEmpty() {
				ss.Occupied = true
				ss.Label = entry.slot.DisplayLabel()
				ss.Kind = entry.slot.Kind
				ss.HasError = entry.slot.HasError
				ss.HasThumbnail = entry.slot.Thumbnail != ""
			}
			summary.Slots = append(summary.Slots, ss)
		}
		for _, p := range t.mixPresets {
			summary.MixPresetNames = append(summary.MixPresetNames, p.Name)
		}
		snap.Tabs = append(snap.Tabs, summary)
	}

	snap.Mixer = make([]models.MixerChannel, len(s.mixer.Channels))
	for i, ch := range s.mixer.Channels {
		ch.Params = ch.Params.Clone()
		ch.CustomParams = ch.CustomParams.Clone()
		if ch.Ref != nil {
			ref := *ch.Ref
			ch.Ref = &ref
		}
		snap.Mixer[i] = ch
	}

	if entry := s.entryAt(s.activeTab, s.activeSlot); entry != nil {
		if r := entry.renderer.Renderer(); r != nil {
			snap.ParamDefs = r.CustomParamDefs()
		}
	}

	for _, p := range s.visualPresets {
		snap.VisualPresets = append(snap.VisualPresets, p.Name)
	}
	return snap
}

// OutputSnapshot builds the scene pushed to the output process. Slot
// references in mixer channels and tiles are resolved to content here;
// a reference that resolves to nothing contributes an empty entry.
func (s *Store) OutputSnapshot() OutputSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := OutputSnapshot{
		Mode:         s.scene.mode,
		Playing:      s.playing,
		Blackout:     s.blackout,
		ShaderCode:   s.scene.shaderCode,
		MediaPath:    s.scene.mediaPath,
		Params:       s.scene.params.Clone(),
		CustomParams: s.scene.customParams.Clone(),
	}

	if s.scene.mode == models.RenderModeMix {
		for i := range s.mixer.Channels {
			ch := &s.mixer.Channels[i]
			if !ch.HasContent() {
				continue
			}
			out.Channels = append(out.Channels, s.snapshotChannelLocked(ch))
		}
	}

	if s.scene.mode == models.RenderModeTiles {
		for i := range s.tiles.Tiles {
			tile := &s.tiles.Tiles[i]
			resolved := ResolvedTile{
				Visible:      tile.Visible,
				Params:       tile.Params.Clone(),
				CustomParams: tile.CustomParams.Clone(),
			}
			if tile.GridSlotIndex != nil {
				if entry := s.entryAt(s.activeGridTab, *tile.GridSlotIndex); entry != nil {
					resolved.ShaderCode = entry.slot.Content
					resolved.AssetType = entry.slot.Kind
					resolved.MediaPath = entry.slot.MediaPath
				}
			}
			out.Tiles = append(out.Tiles, resolved)
		}
	}
	return out
}

// SlotData returns a copy of the slot's data, or false when the position
// is out of bounds or empty.
func (s *Store) SlotData(tabIndex, slotIndex int) (models.Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil {
		return models.Slot{}, false
	}
	data := entry.slot
	data.RuntimeParams = data.RuntimeParams.Clone()
	data.CustomParams = data.CustomParams.Clone()
	data.LocalPresets = append([]models.ParamPreset(nil), data.LocalPresets...)
	return data, true
}

// MixerChannelData returns a copy of the mixer channel at index.
func (s *Store) MixerChannelData(channel int) (models.MixerChannel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.mixer.ChannelAt(channel)
	if ch == nil {
		return models.MixerChannel{}, false
	}
	out := *ch
	out.Params = ch.Params.Clone()
	out.CustomParams = ch.CustomParams.Clone()
	if ch.Ref != nil {
		ref := *ch.Ref
		out.Ref = &ref
	}
	return out, true
}

// ActiveSelection returns the active tab and slot indices.
func (s *Store) ActiveSelection() (tab, slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab, s.activeSlot
}

// RendererHandleID returns the ID of the slot's live renderer handle, or
// the empty string. Exposed for ownership accounting in tests.
func (s *Store) RendererHandleID(tabIndex, slotIndex int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil || entry.renderer == nil {
		return ""
	}
	return entry.renderer.ID()
}
