package broker

import (
	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/store"
)

// Dispatch applies a remote command through the entity store's public
// mutation surface and returns its status. Unknown actions are rejected
// with an error status, never a panic.
func Dispatch(st *store.Store, cmd Command) models.Status {
	switch cmd.Action {
	case ActionSelectTab:
		return st.SelectTab(cmd.Tab)
	case ActionSelectSlot:
		return st.SelectSlot(cmd.Slot)
	case ActionSetParam:
		if cmd.Custom {
			return st.SetSlotCustomParam(cmd.Tab, cmd.Slot, cmd.Name, cmd.Value)
		}
		return st.SetSlotParam(cmd.Tab, cmd.Slot, cmd.Name, cmd.Value)
	case ActionRecallLocalPreset:
		return st.RecallLocalPreset(cmd.Tab, cmd.Slot, cmd.Preset)
	case ActionRecallVisual:
		return st.RecallVisualPreset(cmd.Preset)
	case ActionRecallMix:
		return st.RecallMixPreset(cmd.Tab, cmd.Preset)
	case ActionMixerAssign:
		return st.MixerAssign(cmd.Channel, cmd.Tab, cmd.Slot)
	case ActionMixerClear:
		return st.MixerClear(cmd.Channel)
	case ActionMixerAlpha:
		return st.MixerSetAlpha(cmd.Channel, cmd.Alpha)
	case ActionMixerBlend:
		return st.MixerSetBlend(cmd.Channel, models.BlendMode(cmd.Blend))
	case ActionTileAssign:
		return st.TileAssign(cmd.Tile, cmd.Slot)
	case ActionTileClear:
		return st.TileClear(cmd.Tile)
	case ActionTileVisible:
		return st.TileSetVisible(cmd.Tile, cmd.Visible)
	case ActionSetRenderMode:
		return st.SetRenderMode(models.RenderMode(cmd.Mode))
	case ActionTogglePlayback:
		return st.TogglePlayback()
	case ActionToggleBlackout:
		return st.ToggleBlackout()
	default:
		return models.Errorf("unknown action %q", cmd.Action)
	}
}
