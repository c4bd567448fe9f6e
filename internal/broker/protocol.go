package broker

import (
	"encoding/json"
)

// Message types exchanged with remote clients.
const (
	// Queries (carry a correlation token, get a response)
	MsgState     = "state"
	MsgThumbnail = "thumbnail"

	// Fire-and-forget command
	MsgCommand = "command"

	// Server-originated
	MsgStatus       = "status"
	MsgError        = "error"
	MsgStateChanged = "stateChanged"
)

// Envelope is the wire frame for the remote channel. Token is an opaque
// correlation value chosen by the client; responses echo it unchanged so
// concurrent in-flight queries cannot be cross-delivered. It is kept as
// raw JSON precisely so it round-trips byte-for-byte.
type Envelope struct {
	Token   json.RawMessage `json:"token,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ThumbnailQuery addresses one slot for a thumbnail render.
type ThumbnailQuery struct {
	Tab  int `json:"tabIndex"`
	Slot int `json:"slotIndex"`
}

// ThumbnailReply carries a freshly captured frame. Image marshals as
// base64.
type ThumbnailReply struct {
	Tab   int    `json:"tabIndex"`
	Slot  int    `json:"slotIndex"`
	Image []byte `json:"image"`
}

// Command actions accepted from remote clients. Commands are applied
// through the same store mutations as local callers; there is no
// privileged remote path.
const (
	ActionSelectTab         = "selectTab"
	ActionSelectSlot        = "selectSlot"
	ActionSetParam          = "setParam"
	ActionRecallLocalPreset = "recallLocalPreset"
	ActionRecallVisual      = "recallVisualPreset"
	ActionRecallMix         = "recallMixPreset"
	ActionMixerAssign       = "mixerAssign"
	ActionMixerClear        = "mixerClear"
	ActionMixerAlpha        = "mixerAlpha"
	ActionMixerBlend        = "mixerBlend"
	ActionTileAssign        = "tileAssign"
	ActionTileClear         = "tileClear"
	ActionTileVisible       = "tileVisible"
	ActionSetRenderMode     = "setRenderMode"
	ActionTogglePlayback    = "togglePlayback"
	ActionToggleBlackout    = "toggleBlackout"
)

// Command is a remote-originated mutation request.
type Command struct {
	Action  string  `json:"action"`
	Tab     int     `json:"tab,omitempty"`
	Slot    int     `json:"slot,omitempty"`
	Channel int     `json:"channel,omitempty"`
	Tile    int     `json:"tile,omitempty"`
	Preset  int     `json:"preset,omitempty"`
	Name    string  `json:"name,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Custom  bool    `json:"custom,omitempty"`
	Alpha   float64 `json:"alpha,omitempty"`
	Blend   string  `json:"blend,omitempty"`
	Mode    string  `json:"mode,omitempty"`
	Visible bool    `json:"visible,omitempty"`
}
