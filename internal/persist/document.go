// Package persist serializes the entity store to a versioned document
// and loads it back, migrating legacy layouts to the current one.
package persist

import (
	"fmt"

	"github.com/patchbay-vj/patchbay/internal/models"
)

// CurrentVersion is the version written by Serialize. The version field
// gates migration on load; a document without one is the legacy flat
// array layout.
const CurrentVersion = 2

// legacyPresetTabKind is the retired tab kind whose contents are folded
// into the top-level visual preset list during load.
const legacyPresetTabKind = "presets"

// SlotDoc is the persisted form of one occupied slot.
type SlotDoc struct {
	// ShaderCode is the shader/scene source text.
	ShaderCode string `json:"shaderCode,omitempty"`

	// FilePath is the origin file, if the content came from disk.
	FilePath string `json:"filePath,omitempty"`

	// Kind distinguishes shader from asset entries.
	Kind models.SlotKind `json:"type"`

	// Params holds the playback parameter values.
	Params models.Params `json:"params"`

	// CustomParams holds the content-declared parameter values.
	CustomParams models.Params `json:"customParams"`

	// Presets holds the slot-scoped parameter presets.
	Presets []models.ParamPreset `json:"presets"`

	// Label is the user-facing slot name.
	Label string `json:"label,omitempty"`

	// Thumbnail is the cached still image (data URL).
	Thumbnail string `json:"thumbnail,omitempty"`

	// MediaPath is the media reference for asset entries.
	MediaPath string `json:"mediaPath,omitempty"`
}

// IsEmpty reports whether the entry carries no content.
func (d *SlotDoc) IsEmpty() bool {
	return d == nil || (d.ShaderCode == "" && d.MediaPath == "")
}

// TabDoc is the persisted form of one tab. Kind selects which of Slots
// or MixPresets is meaningful.
type TabDoc struct {
	// Name is the tab name.
	Name string `json:"name"`

	// Kind is the tab kind; the retired "presets" kind appears only in
	// old documents and is folded away during normalization.
	Kind string `json:"type"`

	// Slots holds the compacted slot entries for shaders/assets tabs.
	Slots []*SlotDoc `json:"slots,omitempty"`

	// MixPresets holds the preset list for mix tabs.
	MixPresets []models.MixPreset `json:"mixPresets,omitempty"`

	// VisualPresets appears only in legacy "presets" tabs.
	VisualPresets []models.VisualPreset `json:"visualPresets,omitempty"`
}

// Document is the versioned on-disk representation of the entity store.
type Document struct {
	// Version gates migration; absent (zero) means legacy.
	Version int `json:"version"`

	// ActiveTab is the selected tab index.
	ActiveTab int `json:"activeTab"`

	// ActiveSection is the selected section kind.
	ActiveSection string `json:"activeSection"`

	// Tabs is the ordered tab list.
	Tabs []TabDoc `json:"tabs"`

	// VisualPresets is the top-level scene preset list.
	VisualPresets []models.VisualPreset `json:"visualPresets"`
}

// DefaultDocument returns the document for an empty store: one default
// shaders tab, nothing else.
func DefaultDocument() *Document {
	return &Document{
		Version:       CurrentVersion,
		ActiveSection: string(models.TabKindShaders),
		Tabs: []TabDoc{
			{Name: models.DefaultTabName, Kind: string(models.TabKindShaders)},
		},
	}
}

// LoadReport aggregates the outcome of a document load: how many entries
// were restored and which ones failed. A single entry's failure never
// aborts the rest of the load.
type LoadReport struct {
	// Restored counts successfully reconstructed entries.
	Restored int

	// Failed lists identifiers of entries that could not be restored.
	Failed []string

	// Migrated is set when the source document required migration.
	Migrated bool
}

// Add merges another report into this one.
func (r *LoadReport) Add(other LoadReport) {
	r.Restored += other.Restored
	r.Failed = append(r.Failed, other.Failed...)
	r.Migrated = r.Migrated || other.Migrated
}

// Summary returns the one-line status presented to the user.
func (r *LoadReport) Summary() string {
	if len(r.Failed) == 0 {
		return pluralf("restored %d item", r.Restored)
	}
	return pluralf("restored %d item", r.Restored) +
		", " + pluralf("%d failure", len(r.Failed))
}

func pluralf(format string, n int) string {
	s := fmt.Sprintf(format, n)
	if n != 1 {
		s += "s"
	}
	return s
}
