// Package models defines the core entities of the Patchbay state graph.
package models

// SlotKind identifies what a slot holds.
type SlotKind string

const (
	// SlotKindShader is a slot holding GLSL shader or scene script source.
	SlotKindShader SlotKind = "shader"

	// SlotKindAsset is a slot holding a media asset reference.
	SlotKindAsset SlotKind = "asset"
)

// Params holds named scalar parameter values.
type Params map[string]float64

// Clone returns an independent copy of the parameter map.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParamDef describes a parameter declared by shader/scene content.
type ParamDef struct {
	// Name is the parameter identifier as declared in the content.
	Name string `json:"name"`

	// Min is the lower bound of the value range.
	Min float64 `json:"min"`

	// Max is the upper bound of the value range.
	Max float64 `json:"max"`

	// Default is the initial value.
	Default float64 `json:"default"`

	// Step is the suggested increment for controls.
	Step float64 `json:"step,omitempty"`
}

// ParamPreset is a named snapshot of a slot's parameter values.
type ParamPreset struct {
	// Name is the user-facing preset name.
	Name string `json:"name"`

	// Runtime holds the playback parameter values.
	Runtime Params `json:"params"`

	// Custom holds the content-declared parameter values.
	Custom Params `json:"customParams"`
}

// Slot is a single addressable content holder within a tab.
// A nil *Slot in a tab's slot list is an empty position.
type Slot struct {
	// Kind distinguishes shader/scene content from asset media.
	Kind SlotKind `json:"type"`

	// Content is the shader/scene source text for shader slots.
	Content string `json:"shaderCode,omitempty"`

	// SourcePath is the file the content was loaded from, if any.
	SourcePath string `json:"filePath,omitempty"`

	// MediaPath is the media reference for asset slots.
	MediaPath string `json:"mediaPath,omitempty"`

	// Label is the user-facing slot name.
	Label string `json:"label,omitempty"`

	// Thumbnail is a cached still image (data URL), if one was captured.
	Thumbnail string `json:"thumbnail,omitempty"`

	// RuntimeParams holds scalar playback parameters (speed, etc).
	RuntimeParams Params `json:"params"`

	// CustomParams holds content-declared parameter values.
	CustomParams Params `json:"customParams"`

	// LocalPresets are named parameter snapshots scoped to this slot.
	LocalPresets []ParamPreset `json:"presets"`

	// HasError marks a slot whose content failed to compile or load.
	// The content is retained so the user can edit and retry.
	HasError bool `json:"-"`
}

// IsEmpty reports whether the slot carries no content at all.
func (s *Slot) IsEmpty() bool {
	return s == nil || (s.Content == "" && s.MediaPath == "")
}

// DisplayLabel returns the label, or a fallback derived from the content.
func (s *Slot) DisplayLabel() string {
	if s == nil {
		return ""
	}
	if s.Label != "" {
		return s.Label
	}
	if s.SourcePath != "" {
		return s.SourcePath
	}
	if s.MediaPath != "" {
		return s.MediaPath
	}
	return "untitled"
}
