package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/patchbay-vj/patchbay/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantErr      bool
		wantMigrated bool
		wantTabs     int
	}{
		{
			name:     "empty data yields default document",
			data:     "",
			wantTabs: 1,
		},
		{
			name:     "whitespace only yields default document",
			data:     "  \n ",
			wantTabs: 1,
		},
		{
			name:         "legacy flat array",
			data:         `[{"shaderCode":"a"},{"shaderCode":"b"}]`,
			wantMigrated: true,
			wantTabs:     1,
		},
		{
			name:         "legacy array drops empty entries",
			data:         `[{"shaderCode":"a"},{},null,{"shaderCode":""}]`,
			wantMigrated: true,
			wantTabs:     1,
		},
		{
			name:     "current version document",
			data:     `{"version":2,"activeTab":0,"activeSection":"shaders","tabs":[{"name":"Main","type":"shaders"}]}`,
			wantTabs: 1,
		},
		{
			name:     "unversioned object starts fresh",
			data:     `{"tabs":[{"name":"Mystery","type":"shaders"}]}`,
			wantTabs: 1,
		},
		{
			name:    "malformed json",
			data:    `{"version":`,
			wantErr: true,
		},
		{
			name:    "malformed legacy array",
			data:    `[{"shaderCode"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, migrated, err := Parse([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if migrated != tt.wantMigrated {
				t.Errorf("migrated = %v, want %v", migrated, tt.wantMigrated)
			}
			if len(doc.Tabs) != tt.wantTabs {
				t.Errorf("got %d tabs, want %d", len(doc.Tabs), tt.wantTabs)
			}
			if doc.Version != CurrentVersion {
				t.Errorf("version = %d, want %d", doc.Version, CurrentVersion)
			}
		})
	}
}

func TestParse_LegacyArrayCompacts(t *testing.T) {
	doc, migrated, err := Parse([]byte(`[{"shaderCode":"a"},{},{"shaderCode":"b"}]`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !migrated {
		t.Error("migrated = false for legacy array")
	}

	slots := doc.Tabs[0].Slots
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2 (empties compacted)", len(slots))
	}
	if slots[0].ShaderCode != "a" || slots[1].ShaderCode != "b" {
		t.Errorf("slot order broken: %q, %q", slots[0].ShaderCode, slots[1].ShaderCode)
	}
	if slots[0].Kind != models.SlotKindShader {
		t.Errorf("legacy entry kind = %q, want shader default", slots[0].Kind)
	}
}

func TestParse_FoldsLegacyPresetTab(t *testing.T) {
	data := `{
		"version": 1,
		"tabs": [
			{"name": "Main", "type": "shaders", "slots": [{"shaderCode": "x"}]},
			{"name": "Presets", "type": "presets", "visualPresets": [
				{"name": "drop", "renderMode": "single"}
			]}
		]
	}`

	doc, migrated, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !migrated {
		t.Error("migrated = false when a presets tab was folded")
	}
	if len(doc.Tabs) != 1 {
		t.Fatalf("got %d tabs, want 1 (presets tab folded away)", len(doc.Tabs))
	}
	if len(doc.VisualPresets) != 1 || doc.VisualPresets[0].Name != "drop" {
		t.Errorf("visual presets = %+v", doc.VisualPresets)
	}
}

func TestParse_DropsUnknownTabKinds(t *testing.T) {
	data := `{"version":2,"tabs":[{"name":"Main","type":"shaders"},{"name":"???","type":"wormhole"}]}`

	doc, migrated, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !migrated {
		t.Error("migrated = false when a tab was dropped")
	}
	if len(doc.Tabs) != 1 {
		t.Errorf("got %d tabs, want 1", len(doc.Tabs))
	}
}

func TestParse_ClampsActiveTab(t *testing.T) {
	data := `{"version":2,"activeTab":7,"tabs":[{"name":"Main","type":"shaders"}]}`

	doc, _, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.ActiveTab != 0 {
		t.Errorf("active tab = %d, want 0", doc.ActiveTab)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	doc := DefaultDocument()
	doc.Tabs[0].Slots = []*SlotDoc{{
		ShaderCode: "shader",
		Kind:       models.SlotKindShader,
		Params:     models.Params{"speed": 0.5},
		Label:      "warm",
	}}

	if err := Write(path, doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	loaded, migrated, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if migrated {
		t.Error("freshly written document reported migrated")
	}
	slot := loaded.Tabs[0].Slots[0]
	if slot.ShaderCode != "shader" || slot.Label != "warm" || slot.Params["speed"] != 0.5 {
		t.Errorf("round trip lost data: %+v", slot)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	doc, migrated, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if migrated {
		t.Error("missing file reported migrated")
	}
	if len(doc.Tabs) != 1 || doc.Tabs[0].Name != models.DefaultTabName {
		t.Errorf("missing file did not yield the default document: %+v", doc.Tabs)
	}
}

func TestWrite_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := Write(path, DefaultDocument()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	doc := DefaultDocument()
	doc.Tabs[0].Slots = []*SlotDoc{{ShaderCode: "x", Kind: models.SlotKindShader}}
	if err := Write(path, doc); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	loaded, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Tabs[0].Slots) != 1 {
		t.Error("second write did not replace the first")
	}

	// No temp files may be left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the document", len(entries))
	}
}
