package broker

import (
	"context"
	"testing"

	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/render"
	"github.com/patchbay-vj/patchbay/internal/store"
)

func newDispatchStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(render.NewManager(render.NullCompiler{}))
	status := st.AssignContent(context.Background(), 0, 0, store.AssignRequest{Content: "shader"})
	if !status.OK() {
		t.Fatalf("seed assign failed: %s", status.Message)
	}
	return st
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name   string
		cmd    Command
		wantOK bool
		check  func(t *testing.T, st *store.Store)
	}{
		{
			name:   "selectSlot",
			cmd:    Command{Action: ActionSelectSlot, Slot: 0},
			wantOK: true,
			check: func(t *testing.T, st *store.Store) {
				if st.OutputSnapshot().ShaderCode != "shader" {
					t.Error("selection did not apply the slot to the scene")
				}
			},
		},
		{
			name:   "setParam",
			cmd:    Command{Action: ActionSetParam, Tab: 0, Slot: 0, Name: "speed", Value: 0.4},
			wantOK: true,
			check: func(t *testing.T, st *store.Store) {
				data, _ := st.SlotData(0, 0)
				if data.RuntimeParams["speed"] != 0.4 {
					t.Errorf("param = %v", data.RuntimeParams["speed"])
				}
			},
		},
		{
			name:   "setParam custom",
			cmd:    Command{Action: ActionSetParam, Tab: 0, Slot: 0, Name: "hue", Value: 0.7, Custom: true},
			wantOK: true,
			check: func(t *testing.T, st *store.Store) {
				data, _ := st.SlotData(0, 0)
				if data.CustomParams["hue"] != 0.7 {
					t.Errorf("custom param = %v", data.CustomParams["hue"])
				}
			},
		},
		{
			name:   "mixerAssign",
			cmd:    Command{Action: ActionMixerAssign, Channel: 2, Tab: 0, Slot: 0},
			wantOK: true,
			check: func(t *testing.T, st *store.Store) {
				ch, _ := st.MixerChannelData(2)
				if ch.Ref == nil {
					t.Error("channel not assigned")
				}
			},
		},
		{
			name:   "mixerAlpha",
			cmd:    Command{Action: ActionMixerAlpha, Channel: 0, Alpha: 0.25},
			wantOK: true,
			check: func(t *testing.T, st *store.Store) {
				ch, _ := st.MixerChannelData(0)
				if ch.Alpha != 0.25 {
					t.Errorf("alpha = %v", ch.Alpha)
				}
			},
		},
		{
			name:   "setRenderMode",
			cmd:    Command{Action: ActionSetRenderMode, Mode: "mix"},
			wantOK: true,
			check: func(t *testing.T, st *store.Store) {
				if st.OutputSnapshot().Mode != models.RenderModeMix {
					t.Error("render mode unchanged")
				}
			},
		},
		{
			name:   "togglePlayback",
			cmd:    Command{Action: ActionTogglePlayback},
			wantOK: true,
			check: func(t *testing.T, st *store.Store) {
				if st.OutputSnapshot().Playing {
					t.Error("playback still on")
				}
			},
		},
		{
			name: "invalid blend rejected",
			cmd:  Command{Action: ActionMixerBlend, Channel: 0, Blend: "dissolve"},
		},
		{
			name: "unknown action rejected",
			cmd:  Command{Action: "selfDestruct"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newDispatchStore(t)
			status := Dispatch(st, tt.cmd)
			if status.OK() != tt.wantOK {
				t.Fatalf("Dispatch() status = %q, want ok=%v", status.Message, tt.wantOK)
			}
			if tt.check != nil {
				tt.check(t, st)
			}
		})
	}
}
