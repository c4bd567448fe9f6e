package models

// TabKind identifies what a tab contains.
type TabKind string

const (
	// TabKindShaders is a tab of shader/scene slots.
	TabKindShaders TabKind = "shaders"

	// TabKindAssets is a tab of media asset slots.
	TabKindAssets TabKind = "assets"

	// TabKindMix is a tab of mixer presets.
	TabKindMix TabKind = "mix"
)

// Valid reports whether the kind is one of the known tab kinds.
func (k TabKind) Valid() bool {
	switch k {
	case TabKindShaders, TabKindAssets, TabKindMix:
		return true
	}
	return false
}

// OwnsSlots reports whether tabs of this kind carry a slot list.
func (k TabKind) OwnsSlots() bool {
	return k == TabKindShaders || k == TabKindAssets
}

// DefaultTabName is the name given to the tab created for empty or
// migrated documents.
const DefaultTabName = "Main"

// Tab is an ordered, named grouping of slots or mix presets.
// Tab identity is its index in the tab list; indices are stable only
// within a session.
type Tab struct {
	// Name is the user-facing tab name.
	Name string `json:"name"`

	// Kind determines which of Slots or MixPresets is meaningful.
	Kind TabKind `json:"type"`

	// Slots is the ordered slot list; entries may be nil (empty position).
	// Only meaningful for shaders/assets tabs.
	Slots []*Slot `json:"slots,omitempty"`

	// MixPresets is the mix preset list. Only meaningful for mix tabs.
	MixPresets []MixPreset `json:"mixPresets,omitempty"`
}
