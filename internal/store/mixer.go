package store

import (
	"github.com/patchbay-vj/patchbay/internal/models"
)

// MixerAssign points a mixer channel at a live slot by index. The channel
// holds only the (tab, slot) pair; the renderer stays owned by the slot
// and is re-resolved on every use.
func (s *Store) MixerAssign(channel, tabIndex, slotIndex int) models.Status {
	s.mu.Lock()
	ch := s.mixer.ChannelAt(channel)
	if ch == nil {
		s.mu.Unlock()
		return models.Errorf("no mixer channel %d", channel)
	}
	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil || entry.slot.IsEmpty() {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}
	ch.Clear()
	ch.Active = true
	ch.Ref = &models.SlotRef{Tab: tabIndex, Slot: slotIndex}
	ch.Params = entry.slot.RuntimeParams.Clone()
	ch.CustomParams = entry.slot.CustomParams.Clone()
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeMixer, tabIndex, slotIndex))
	return models.Successf("channel %d assigned", channel)
}

// MixerClear empties a mixer channel.
func (s *Store) MixerClear(channel int) models.Status {
	s.mu.Lock()
	ch := s.mixer.ChannelAt(channel)
	if ch == nil {
		s.mu.Unlock()
		return models.Errorf("no mixer channel %d", channel)
	}
	ch.Clear()
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeMixer, -1, -1))
	return models.Successf("channel %d cleared", channel)
}

// MixerSetAlpha sets a channel's opacity, clamped to [0, 1].
func (s *Store) MixerSetAlpha(channel int, alpha float64) models.Status {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}

	s.mu.Lock()
	ch := s.mixer.ChannelAt(channel)
	if ch == nil {
		s.mu.Unlock()
		return models.Errorf("no mixer channel %d", channel)
	}
	ch.Alpha = alpha
	s.mu.Unlock()

	change := models.NewChange(models.ChangeTypeMixer, -1, -1)
	change.Params = models.Params{"alpha": alpha}
	s.emit(change)
	return models.Successf("channel %d alpha %.2f", channel, alpha)
}

// MixerSetBlend sets a channel's blend mode.
func (s *Store) MixerSetBlend(channel int, blend models.BlendMode) models.Status {
	if !blend.Valid() {
		return models.Errorf("unknown blend mode %q", blend)
	}

	s.mu.Lock()
	ch := s.mixer.ChannelAt(channel)
	if ch == nil {
		s.mu.Unlock()
		return models.Errorf("no mixer channel %d", channel)
	}
	ch.Blend = blend
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeMixer, -1, -1))
	return models.Successf("channel %d blend %s", channel, blend)
}

// MixerSetParam sets one parameter value on a channel.
func (s *Store) MixerSetParam(channel int, name string, value float64, custom bool) models.Status {
	s.mu.Lock()
	ch := s.mixer.ChannelAt(channel)
	if ch == nil {
		s.mu.Unlock()
		return models.Errorf("no mixer channel %d", channel)
	}
	if custom {
		if ch.CustomParams == nil {
			ch.CustomParams = models.Params{}
		}
		ch.CustomParams[name] = value
	} else {
		if ch.Params == nil {
			ch.Params = models.Params{}
		}
		ch.Params[name] = value
	}
	s.mu.Unlock()

	change := models.NewChange(models.ChangeTypeMixer, -1, -1)
	change.Params = models.Params{name: value}
	s.emit(change)
	return models.Successf("set %s", name)
}

// snapshotChannelLocked captures one channel by value, resolving a slot
// reference into inline content so the snapshot survives graph changes.
// Callers must hold the store lock.
func (s *Store) snapshotChannelLocked(ch *models.MixerChannel) models.ChannelSnapshot {
	snap := models.ChannelSnapshot{
		Active:       ch.Active,
		Alpha:        ch.Alpha,
		Blend:        ch.Blend,
		Params:       ch.Params.Clone(),
		CustomParams: ch.CustomParams.Clone(),
		ShaderCode:   ch.ShaderCode,
		AssetType:    ch.AssetType,
		MediaPath:    ch.MediaPath,
	}
	if ch.Ref != nil {
		if entry := s.entryAt(ch.Ref.Tab, ch.Ref.Slot); entry != nil {
			snap.ShaderCode = entry.slot.Content
			snap.AssetType = entry.slot.Kind
			snap.MediaPath = entry.slot.MediaPath
		}
	}
	return snap
}

// SaveMixPreset captures the current mixer state into a named preset on
// the given mix tab.
func (s *Store) SaveMixPreset(tabIndex int, name string) models.Status {
	if name == "" {
		return models.Errorf("preset name is required")
	}

	s.mu.Lock()
	t := s.tabAt(tabIndex)
	if t == nil || t.kind != models.TabKindMix {
		s.mu.Unlock()
		return models.Errorf("no mix tab at index %d", tabIndex)
	}

	preset := models.MixPreset{Name: name}
	for i := range s.mixer.Channels {
		preset.Channels = append(preset.Channels, s.snapshotChannelLocked(&s.mixer.Channels[i]))
	}

	// Same-named preset is updated in place.
	replaced := false
	for i := range t.mixPresets {
		if t.mixPresets[i].Name == name {
			t.mixPresets[i] = preset
			replaced = true
			break
		}
	}
	if !replaced {
		t.mixPresets = append(t.mixPresets, preset)
	}
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePresets, tabIndex, -1))
	return models.Successf("saved mix preset %s", name)
}

// RecallMixPreset applies a stored mix preset. Channels are recalled as
// inline standalone content; they do not re-attach to live slots. The
// full channel set commits before observers are notified.
func (s *Store) RecallMixPreset(tabIndex, presetIndex int) models.Status {
	s.mu.Lock()
	t := s.tabAt(tabIndex)
	if t == nil || t.kind != models.TabKindMix {
		s.mu.Unlock()
		return models.Errorf("no mix tab at index %d", tabIndex)
	}
	if presetIndex < 0 || presetIndex >= len(t.mixPresets) {
		s.mu.Unlock()
		return models.Errorf("no mix preset at index %d", presetIndex)
	}
	preset := t.mixPresets[presetIndex]

	for i := range s.mixer.Channels {
		ch := &s.mixer.Channels[i]
		ch.Clear()
		if i >= len(preset.Channels) {
			continue
		}
		snap := preset.Channels[i]
		ch.Active = snap.Active
		ch.Alpha = snap.Alpha
		ch.Blend = snap.Blend
		ch.Params = snap.Params.Clone()
		ch.CustomParams = snap.CustomParams.Clone()
		ch.ShaderCode = snap.ShaderCode
		ch.AssetType = snap.AssetType
		ch.MediaPath = snap.MediaPath
	}
	s.scene.mode = models.RenderModeMix
	name := preset.Name
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeMixer, -1, -1))
	return models.Successf("recalled mix preset %s", name)
}

// DeleteMixPreset removes a stored mix preset.
func (s *Store) DeleteMixPreset(tabIndex, presetIndex int) models.Status {
	s.mu.Lock()
	t := s.tabAt(tabIndex)
	if t == nil || t.kind != models.TabKindMix {
		s.mu.Unlock()
		return models.Errorf("no mix tab at index %d", tabIndex)
	}
	if presetIndex < 0 || presetIndex >= len(t.mixPresets) {
		s.mu.Unlock()
		return models.Errorf("no mix preset at index %d", presetIndex)
	}
	name := t.mixPresets[presetIndex].Name
	t.mixPresets = append(t.mixPresets[:presetIndex], t.mixPresets[presetIndex+1:]...)
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePresets, tabIndex, -1))
	return models.Successf("deleted mix preset %s", name)
}
