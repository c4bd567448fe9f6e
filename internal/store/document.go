package store

import (
	"context"
	"fmt"

	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/persist"
)

// ExportDocument builds the persisted form of the store. Only compact
// entries are emitted: empty positions are dropped, and their indices
// renumber on the next load.
func (s *Store) ExportDocument() *persist.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &persist.Document{
		Version:       persist.CurrentVersion,
		ActiveTab:     s.activeTab,
		ActiveSection: string(s.activeSection),
		VisualPresets: append([]models.VisualPreset(nil), s.visualPresets...),
	}

	for _, t := range s.tabs {
		tabDoc := persist.TabDoc{Name: t.name, Kind: string(t.kind)}
		if t.kind == models.TabKindMix {
			tabDoc.MixPresets = append([]models.MixPreset(nil), t.mixPresets...)
		}
		for _, entry := range t.slots {
			if entry == nil || entry.slot.IsEmpty() {
				continue
			}
			tabDoc.Slots = append(tabDoc.Slots, &persist.SlotDoc{
				ShaderCode:   entry.slot.Content,
				FilePath:     entry.slot.SourcePath,
				Kind:         entry.slot.Kind,
				Params:       entry.slot.RuntimeParams.Clone(),
				CustomParams: entry.slot.CustomParams.Clone(),
				Presets:      append([]models.ParamPreset(nil), entry.slot.LocalPresets...),
				Label:        entry.slot.Label,
				Thumbnail:    entry.slot.Thumbnail,
				MediaPath:    entry.slot.MediaPath,
			})
		}
		doc.Tabs = append(doc.Tabs, tabDoc)
	}
	return doc
}

// ImportDocument replaces the store contents with a loaded document.
// Reconstruction is an ordered, partially-recoverable batch: each entry
// is attempted in turn, a failed entry degrades to an errored slot and
// the load continues. The returned report carries the aggregate outcome;
// callers present its summary once rather than one message per failure.
func (s *Store) ImportDocument(ctx context.Context, doc *persist.Document) persist.LoadReport {
	var report persist.LoadReport

	// Build the replacement graph outside the lock: compilation is
	// I/O-bound and per-entry recoverable.
	tabs := make([]*tabEntry, 0, len(doc.Tabs))
	for _, tabDoc := range doc.Tabs {
		kind := models.TabKind(tabDoc.Kind)
		t := &tabEntry{name: tabDoc.Name, kind: kind}
		if kind == models.TabKindMix {
			t.mixPresets = append(t.mixPresets, tabDoc.MixPresets...)
		}
		for i, slotDoc := range tabDoc.Slots {
			if slotDoc.IsEmpty() {
				continue
			}
			entry := &slotEntry{slot: models.Slot{
				Kind:          slotDoc.Kind,
				Content:       slotDoc.ShaderCode,
				SourcePath:    slotDoc.FilePath,
				MediaPath:     slotDoc.MediaPath,
				Label:         slotDoc.Label,
				Thumbnail:     slotDoc.Thumbnail,
				RuntimeParams: slotDoc.Params.Clone(),
				CustomParams:  slotDoc.CustomParams.Clone(),
				LocalPresets:  append([]models.ParamPreset(nil), slotDoc.Presets...),
			}}
			if entry.slot.RuntimeParams == nil {
				entry.slot.RuntimeParams = models.Params{}
			}
			if entry.slot.CustomParams == nil {
				entry.slot.CustomParams = models.Params{}
			}
			if entry.slot.Kind == "" {
				entry.slot.Kind = models.SlotKindShader
			}

			if entry.slot.Kind == models.SlotKindShader {
				handle, err := s.renderers.Acquire(ctx, entry.slot.Content, nil)
				if err != nil {
					entry.slot.HasError = true
					report.Failed = append(report.Failed,
						fmt.Sprintf("%s[%d] %s", tabDoc.Name, i, entry.slot.DisplayLabel()))
					s.logger.Warn().Err(err).
						Str("tab", tabDoc.Name).Int("slot", i).
						Msg("entry failed to restore")
				} else {
					entry.renderer = handle
					s.pushParams(entry)
					report.Restored++
				}
			} else {
				report.Restored++
			}
			t.slots = append(t.slots, entry)
			t.surfaces = append(t.surfaces, nil)
		}
		tabs = append(tabs, t)
	}
	if len(tabs) == 0 {
		tabs = []*tabEntry{{name: models.DefaultTabName, kind: models.TabKindShaders}}
	}

	// Install the new graph and retire the old one.
	s.mu.Lock()
	old := s.tabs
	s.tabs = tabs
	s.visualPresets = append([]models.VisualPreset(nil), doc.VisualPresets...)
	s.activeTab = doc.ActiveTab
	if s.activeTab < 0 || s.activeTab >= len(s.tabs) {
		s.activeTab = 0
	}
	s.activeSlot = 0
	if section := models.TabKind(doc.ActiveSection); section.Valid() {
		s.activeSection = section
	} else {
		s.activeSection = models.TabKindShaders
	}
	s.activeGridTab = s.firstGridTabLocked()
	s.clearTilesLocked()

	for _, t := range old {
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
	}
	s.mu.Unlock()

	s.emit(models.NewChange(models.ChangeTypeTabsChanged, -1, -1))
	s.logger.Info().
		Int("restored", report.Restored).
		Int("failed", len(report.Failed)).
		Msg("document imported")
	return report
}
