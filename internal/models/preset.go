package models

// ChannelSnapshot captures one mixer channel for a mix preset. It carries
// content by value (shader code or asset reference), never a live slot
// reference, so presets stay valid after the slot graph changes.
type ChannelSnapshot struct {
	// Active marks whether the channel contributed at capture time.
	Active bool `json:"active"`

	// Alpha is the captured channel opacity.
	Alpha float64 `json:"alpha"`

	// Blend is the captured blend mode.
	Blend BlendMode `json:"blend,omitempty"`

	// Params holds the captured playback parameter values.
	Params Params `json:"params"`

	// CustomParams holds the captured content parameter values.
	CustomParams Params `json:"customParams"`

	// ShaderCode is the captured shader content, if the channel held one.
	ShaderCode string `json:"shaderCode,omitempty"`

	// AssetType is the captured asset kind, if the channel held media.
	AssetType SlotKind `json:"assetType,omitempty"`

	// MediaPath is the captured media reference.
	MediaPath string `json:"mediaPath,omitempty"`
}

// MixPreset is a named snapshot of the full mixer state. Pure data; safe
// to duplicate, export and import freely.
type MixPreset struct {
	// Name is the user-facing preset name.
	Name string `json:"name"`

	// Channels holds one snapshot per captured channel.
	Channels []ChannelSnapshot `json:"channels"`
}

// RenderMode identifies which composition path drives the output.
type RenderMode string

const (
	// RenderModeSingle renders the selected slot alone.
	RenderModeSingle RenderMode = "single"

	// RenderModeMix renders the mixer blend stack.
	RenderModeMix RenderMode = "mix"

	// RenderModeTiles renders the tile grid.
	RenderModeTiles RenderMode = "tiles"
)

// Valid reports whether the mode is one of the known render modes.
func (m RenderMode) Valid() bool {
	switch m {
	case RenderModeSingle, RenderModeMix, RenderModeTiles:
		return true
	}
	return false
}

// VisualPreset is a named snapshot of full scene state: render mode,
// content, parameters and an optional embedded mixer snapshot. It
// references no live slot or renderer.
type VisualPreset struct {
	// Name is the user-facing preset name.
	Name string `json:"name"`

	// Mode is the captured render mode.
	Mode RenderMode `json:"renderMode"`

	// ShaderCode is the captured content for single-slot scenes.
	ShaderCode string `json:"shaderCode,omitempty"`

	// MediaPath is the captured media reference for asset scenes.
	MediaPath string `json:"mediaPath,omitempty"`

	// Params holds the captured playback parameter values.
	Params Params `json:"params"`

	// CustomParams holds the captured content parameter values.
	CustomParams Params `json:"customParams"`

	// Mixer is the embedded mixer snapshot, if the scene used the mixer.
	Mixer []ChannelSnapshot `json:"mixer,omitempty"`
}
