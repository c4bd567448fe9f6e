package models

import "time"

// ChangeType categorizes state changes published by the entity store.
type ChangeType string

const (
	// Slot changes
	ChangeTypeSlotContent ChangeType = "slot.content"
	ChangeTypeSlotParams  ChangeType = "slot.params"
	ChangeTypeSlotRemoved ChangeType = "slot.removed"

	// Structural changes
	ChangeTypeTabsChanged ChangeType = "tabs.changed"
	ChangeTypeSelection   ChangeType = "selection.changed"

	// Composition changes
	ChangeTypeMixer ChangeType = "mixer.changed"
	ChangeTypeTiles ChangeType = "tiles.changed"

	// Preset changes
	ChangeTypePresets ChangeType = "presets.changed"

	// Output-level toggles
	ChangeTypePlayback ChangeType = "playback.toggled"
	ChangeTypeBlackout ChangeType = "blackout.toggled"
)

// Change describes one observed mutation of the entity store. Changes are
// pure data: they carry indices and values, never live resources.
type Change struct {
	// Type categorizes the change.
	Type ChangeType `json:"type"`

	// Timestamp is when the change was applied.
	Timestamp time.Time `json:"timestamp"`

	// Tab is the affected tab index, or -1 when not tab-scoped.
	Tab int `json:"tab"`

	// Slot is the affected slot index, or -1 when not slot-scoped.
	Slot int `json:"slot"`

	// Params carries parameter values for parameter changes, allowing
	// the broker to coalesce rapid edits into one combined update.
	Params Params `json:"params,omitempty"`
}

// NewChange constructs a change with the timestamp set.
func NewChange(typ ChangeType, tab, slot int) Change {
	return Change{Type: typ, Timestamp: time.Now().UTC(), Tab: tab, Slot: slot}
}
