package models

// MixerChannelCount is the fixed number of mixer channels.
const MixerChannelCount = 8

// BlendMode identifies how a mixer channel composites over the stack.
type BlendMode string

const (
	BlendNormal   BlendMode = "normal"
	BlendAdd      BlendMode = "add"
	BlendMultiply BlendMode = "multiply"
	BlendScreen   BlendMode = "screen"
)

// Valid reports whether the blend mode is one of the known modes.
func (b BlendMode) Valid() bool {
	switch b {
	case BlendNormal, BlendAdd, BlendMultiply, BlendScreen:
		return true
	}
	return false
}

// SlotRef is a weak, index-based reference to a slot. Holders re-resolve
// it on every use; a ref that resolves to nothing is a normal empty state,
// not an error.
type SlotRef struct {
	// Tab is the tab index.
	Tab int `json:"tabIndex"`

	// Slot is the slot index within the tab.
	Slot int `json:"slotIndex"`
}

// MixerChannel is one layer of the live blend stack. Exactly one of Ref
// or the inline content fields (ShaderCode, or AssetType+MediaPath) is
// meaningful at a time; inline content carries recalled presets whose
// slot no longer exists.
type MixerChannel struct {
	// Active marks a channel that currently contributes to the mix.
	Active bool `json:"active"`

	// Alpha is the channel opacity in [0, 1].
	Alpha float64 `json:"alpha"`

	// Blend is the channel blend mode.
	Blend BlendMode `json:"blend,omitempty"`

	// Params holds playback parameter values for this channel.
	Params Params `json:"params"`

	// CustomParams holds content-declared parameter values.
	CustomParams Params `json:"customParams"`

	// Ref points at a live slot, or is nil for inline content.
	Ref *SlotRef `json:"ref,omitempty"`

	// ShaderCode is inline shader content for slot-less channels.
	ShaderCode string `json:"shaderCode,omitempty"`

	// AssetType is the inline asset kind for slot-less channels.
	AssetType SlotKind `json:"assetType,omitempty"`

	// MediaPath is the inline media reference for slot-less channels.
	MediaPath string `json:"mediaPath,omitempty"`
}

// HasContent reports whether the channel carries anything to composite.
func (c *MixerChannel) HasContent() bool {
	if c == nil {
		return false
	}
	return c.Ref != nil || c.ShaderCode != "" || c.MediaPath != ""
}

// Clear resets the channel to an empty, inactive state.
func (c *MixerChannel) Clear() {
	*c = MixerChannel{Alpha: c.Alpha, Blend: BlendNormal}
	c.Active = false
}

// Mixer is the fixed-size blend stack.
type Mixer struct {
	// Channels is the fixed channel array.
	Channels [MixerChannelCount]MixerChannel `json:"channels"`
}

// NewMixer returns a mixer with all channels cleared and full alpha.
func NewMixer() *Mixer {
	m := &Mixer{}
	for i := range m.Channels {
		m.Channels[i] = MixerChannel{Alpha: 1, Blend: BlendNormal}
	}
	return m
}

// ChannelAt returns the channel at index, or nil if out of range.
func (m *Mixer) ChannelAt(index int) *MixerChannel {
	if m == nil || index < 0 || index >= MixerChannelCount {
		return nil
	}
	return &m.Channels[index]
}
