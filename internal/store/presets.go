package store

import (
	"github.com/jinzhu/copier"

	"github.com/patchbay-vj/patchbay/internal/models"
)

// SaveLocalPreset captures a slot's current parameter values under a
// name. A same-named preset is updated in place.
func (s *Store) SaveLocalPreset(tabIndex, slotIndex int, name string) models.Status {
	if name == "" {
		return models.Errorf("preset name is required")
	}

	s.mu.Lock()
	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}
	preset := models.ParamPreset{
		Name:    name,
		Runtime: entry.slot.RuntimeParams.Clone(),
		Custom:  entry.slot.CustomParams.Clone(),
	}
	replaced := false
	for i := range entry.slot.LocalPresets {
		if entry.slot.LocalPresets[i].Name == name {
			entry.slot.LocalPresets[i] = preset
			replaced = true
			break
		}
	}
	if !replaced {
		entry.slot.LocalPresets = append(entry.slot.LocalPresets, preset)
	}
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePresets, tabIndex, slotIndex))
	return models.Successf("saved preset %s", name)
}

// RecallLocalPreset applies a slot-scoped parameter preset. Runtime
// parameters apply before custom parameters, and observers are notified
// only after both are in place.
func (s *Store) RecallLocalPreset(tabIndex, slotIndex, presetIndex int) models.Status {
	s.mu.Lock()
	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}
	if presetIndex < 0 || presetIndex >= len(entry.slot.LocalPresets) {
		s.mu.Unlock()
		return models.Errorf("no preset at index %d", presetIndex)
	}
	preset := entry.slot.LocalPresets[presetIndex]
	entry.slot.RuntimeParams = preset.Runtime.Clone()
	entry.slot.CustomParams = preset.Custom.Clone()
	if entry.slot.RuntimeParams == nil {
		entry.slot.RuntimeParams = models.Params{}
	}
	if entry.slot.CustomParams == nil {
		entry.slot.CustomParams = models.Params{}
	}
	s.pushParams(entry)
	s.mu.Unlock()

	change := models.NewChange(models.ChangeTypeSlotParams, tabIndex, slotIndex)
	change.Params = preset.Runtime.Clone()
	s.emit(change)
	return models.Successf("recalled preset %s", preset.Name)
}

// DeleteLocalPreset removes a slot-scoped parameter preset.
func (s *Store) DeleteLocalPreset(tabIndex, slotIndex, presetIndex int) models.Status {
	s.mu.Lock()
	entry := s.entryAt(tabIndex, slotIndex)
	if entry == nil {
		s.mu.Unlock()
		return models.Errorf("no slot at tab %d index %d", tabIndex, slotIndex)
	}
	if presetIndex < 0 || presetIndex >= len(entry.slot.LocalPresets) {
		s.mu.Unlock()
		return models.Errorf("no preset at index %d", presetIndex)
	}
	name := entry.slot.LocalPresets[presetIndex].Name
	entry.slot.LocalPresets = append(
		entry.slot.LocalPresets[:presetIndex],
		entry.slot.LocalPresets[presetIndex+1:]...,
	)
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePresets, tabIndex, slotIndex))
	return models.Successf("deleted preset %s", name)
}

// SaveVisualPreset captures the full live scene (render mode, content,
// parameters and the mixer) under a name.
func (s *Store) SaveVisualPreset(name string) models.Status {
	if name == "" {
		return models.Errorf("preset name is required")
	}

	s.mu.Lock()
	preset := models.VisualPreset{
		Name:         name,
		Mode:         s.scene.mode,
		ShaderCode:   s.scene.shaderCode,
		MediaPath:    s.scene.mediaPath,
		Params:       s.scene.params.Clone(),
		CustomParams: s.scene.customParams.Clone(),
	}
	if s.scene.mode == models.RenderModeMix {
		for i := range s.mixer.Channels {
			preset.Mixer = append(preset.Mixer, s.snapshotChannelLocked(&s.mixer.Channels[i]))
		}
	}
	replaced := false
	for i := range s.visualPresets {
		if s.visualPresets[i].Name == name {
			s.visualPresets[i] = preset
			replaced = true
			break
		}
	}
	if !replaced {
		s.visualPresets = append(s.visualPresets, preset)
	}
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePresets, -1, -1))
	return models.Successf("saved visual preset %s", name)
}

// RecallVisualPreset applies a stored scene snapshot atomically: content
// lands first, then parameters, then custom parameters, then the mixer
// snapshot; observers are notified once, after everything is in place.
func (s *Store) RecallVisualPreset(presetIndex int) models.Status {
	s.mu.Lock()
	if presetIndex < 0 || presetIndex >= len(s.visualPresets) {
		s.mu.Unlock()
		return models.Errorf("no visual preset at index %d", presetIndex)
	}
	preset := s.visualPresets[presetIndex]

	s.scene.mode = preset.Mode
	s.scene.shaderCode = preset.ShaderCode
	s.scene.mediaPath = preset.MediaPath
	s.scene.params = preset.Params.Clone()
	s.scene.customParams = preset.CustomParams.Clone()
	if s.scene.params == nil {
		s.scene.params = models.Params{}
	}
	if s.scene.customParams == nil {
		s.scene.customParams = models.Params{}
	}

	if len(preset.Mixer) > 0 {
		for i := range s.mixer.Channels {
			ch := &s.mixer.Channels[i]
			ch.Clear()
			if i >= len(preset.Mixer) {
				continue
			}
			snap := preset.Mixer[i]
			ch.Active = snap.Active
			ch.Alpha = snap.Alpha
			ch.Blend = snap.Blend
			ch.Params = snap.Params.Clone()
			ch.CustomParams = snap.CustomParams.Clone()
			ch.ShaderCode = snap.ShaderCode
			ch.AssetType = snap.AssetType
			ch.MediaPath = snap.MediaPath
		}
	}
	name := preset.Name
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePresets, -1, -1))
	return models.Successf("recalled visual preset %s", name)
}

// DeleteVisualPreset removes a stored visual preset.
func (s *Store) DeleteVisualPreset(presetIndex int) models.Status {
	s.mu.Lock()
	if presetIndex < 0 || presetIndex >= len(s.visualPresets) {
		s.mu.Unlock()
		return models.Errorf("no visual preset at index %d", presetIndex)
	}
	name := s.visualPresets[presetIndex].Name
	s.visualPresets = append(s.visualPresets[:presetIndex], s.visualPresets[presetIndex+1:]...)
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePresets, -1, -1))
	return models.Successf("deleted visual preset %s", name)
}

// VisualPresets returns a deep copy of the stored visual presets, safe
// for export.
func (s *Store) VisualPresets() []models.VisualPreset {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.VisualPreset
	if err := copier.CopyWithOption(&out, &s.visualPresets, copier.Option{DeepCopy: true}); err != nil {
		s.logger.Error().Err(err).Msg("visual preset copy failed")
		return nil
	}
	return out
}

// ImportVisualPresets merges presets into the store. Same-named presets
// are replaced; failures are per-preset and aggregated into the status.
func (s *Store) ImportVisualPresets(presets []models.VisualPreset) models.Status {
	imported := 0
	skipped := 0

	s.mu.Lock()
	for _, p := range presets {
		if p.Name == "" || !p.Mode.Valid() {
			skipped++
			continue
		}
		replaced := false
		for i := range s.visualPresets {
			if s.visualPresets[i].Name == p.Name {
				s.visualPresets[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			s.visualPresets = append(s.visualPresets, p)
		}
		imported++
	}
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypePresets, -1, -1))
	if skipped > 0 {
		return models.Infof("imported %d presets, skipped %d invalid", imported, skipped)
	}
	return models.Successf("imported %d presets", imported)
}
