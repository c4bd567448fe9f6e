package models

import "testing"

func TestParams_Clone(t *testing.T) {
	orig := Params{"speed": 1.0, "hue": 0.3}
	clone := orig.Clone()

	clone["speed"] = 2.0
	if orig["speed"] != 1.0 {
		t.Errorf("Clone() shares storage: orig speed = %v", orig["speed"])
	}
	if len(clone) != 2 {
		t.Errorf("Clone() len = %d, want 2", len(clone))
	}

	if got := Params(nil).Clone(); got != nil {
		t.Errorf("nil Clone() = %v, want nil", got)
	}
}

func TestSlot_IsEmpty(t *testing.T) {
	tests := []struct {
		name string
		slot *Slot
		want bool
	}{
		{
			name: "nil slot",
			slot: nil,
			want: true,
		},
		{
			name: "zero slot",
			slot: &Slot{},
			want: true,
		},
		{
			name: "labelled but contentless",
			slot: &Slot{Label: "soon"},
			want: true,
		},
		{
			name: "shader content",
			slot: &Slot{Kind: SlotKindShader, Content: "void main() {}"},
			want: false,
		},
		{
			name: "asset reference",
			slot: &Slot{Kind: SlotKindAsset, MediaPath: "clip.mp4"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.slot.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlot_DisplayLabel(t *testing.T) {
	tests := []struct {
		name string
		slot *Slot
		want string
	}{
		{
			name: "nil slot",
			slot: nil,
			want: "",
		},
		{
			name: "explicit label wins",
			slot: &Slot{Label: "plasma", SourcePath: "/tmp/plasma.frag"},
			want: "plasma",
		},
		{
			name: "falls back to source path",
			slot: &Slot{SourcePath: "/tmp/plasma.frag"},
			want: "/tmp/plasma.frag",
		},
		{
			name: "falls back to media path",
			slot: &Slot{MediaPath: "clip.mp4"},
			want: "clip.mp4",
		},
		{
			name: "inline content",
			slot: &Slot{Content: "void main() {}"},
			want: "untitled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.slot.DisplayLabel(); got != tt.want {
				t.Errorf("DisplayLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
