package store

import (
	"context"
	"testing"

	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/persist"
	"github.com/patchbay-vj/patchbay/internal/render"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestStore()
	src.AddTab("Clips", models.TabKindAssets)
	src.AddTab("Mix", models.TabKindMix)
	mustAssign(t, src, 0, 0, "shader one")
	src.AssignContent(context.Background(), 1, 0, AssignRequest{MediaPath: "clips/a.mp4", Label: "clip"})
	src.SetSlotParam(0, 0, "speed", 0.3)
	src.SaveLocalPreset(0, 0, "calm")
	src.MixerAssign(0, 0, 0)
	src.SaveMixPreset(2, "stack")
	src.SelectSlot(0)
	src.SaveVisualPreset("drop")

	doc := src.ExportDocument()

	dst := newTestStore()
	report := dst.ImportDocument(context.Background(), doc)
	if len(report.Failed) != 0 {
		t.Fatalf("import failures: %v", report.Failed)
	}
	if report.Restored != 2 {
		t.Errorf("Restored = %d, want 2", report.Restored)
	}

	data, ok := dst.SlotData(0, 0)
	if !ok || data.Content != "shader one" {
		t.Fatalf("slot content = %q", data.Content)
	}
	if data.RuntimeParams["speed"] != 0.3 {
		t.Errorf("runtime param = %v, want 0.3", data.RuntimeParams["speed"])
	}
	if len(data.LocalPresets) != 1 || data.LocalPresets[0].Name != "calm" {
		t.Errorf("local presets = %+v", data.LocalPresets)
	}

	clip, ok := dst.SlotData(1, 0)
	if !ok || clip.MediaPath != "clips/a.mp4" {
		t.Errorf("asset slot = %+v", clip)
	}

	snap := dst.Snapshot()
	if len(snap.Tabs) != 3 {
		t.Fatalf("got %d tabs, want 3", len(snap.Tabs))
	}
	if snap.Tabs[2].MixPresetNames[0] != "stack" {
		t.Errorf("mix presets = %v", snap.Tabs[2].MixPresetNames)
	}
	if len(snap.VisualPresets) != 1 || snap.VisualPresets[0] != "drop" {
		t.Errorf("visual presets = %v", snap.VisualPresets)
	}
}

func TestExportDocument_SkipsEmptyEntries(t *testing.T) {
	s := newTestStore()
	mustAssign(t, s, 0, 3, "only occupied slot")

	doc := s.ExportDocument()
	if len(doc.Tabs) != 1 {
		t.Fatalf("got %d tabs, want 1", len(doc.Tabs))
	}
	// Positions 0..2 are empty and must not be persisted; the surviving
	// entry renumbers to index 0 on the next load.
	if len(doc.Tabs[0].Slots) != 1 {
		t.Errorf("got %d slot entries, want 1", len(doc.Tabs[0].Slots))
	}
}

func TestImportDocument_PartialFailure(t *testing.T) {
	s := newTestStore()

	doc := &persist.Document{
		Version: persist.CurrentVersion,
		Tabs: []persist.TabDoc{{
			Name: "Main",
			Kind: string(models.TabKindShaders),
			Slots: []*persist.SlotDoc{
				{ShaderCode: "good shader", Kind: models.SlotKindShader},
				{ShaderCode: "   ", Kind: models.SlotKindShader},
				{ShaderCode: "another good one", Kind: models.SlotKindShader},
			},
		}},
	}

	report := s.ImportDocument(context.Background(), doc)
	if report.Restored != 2 {
		t.Errorf("Restored = %d, want 2", report.Restored)
	}
	if len(report.Failed) != 1 {
		t.Fatalf("Failed = %v, want exactly one entry", report.Failed)
	}

	// The failed entry degrades to an errored slot; the rest load.
	bad, ok := s.SlotData(0, 1)
	if !ok || !bad.HasError {
		t.Error("failed entry not retained as errored slot")
	}
	if good, ok := s.SlotData(0, 2); !ok || good.HasError {
		t.Error("entry after the failure did not load")
	}
	if got := s.Renderers().LiveCount(); got != 2 {
		t.Errorf("LiveCount() = %d, want 2", got)
	}
}

func TestImportDocument_ReplacesOldGraph(t *testing.T) {
	s := newTestStore()
	mustAssign(t, s, 0, 0, "old shader")
	mustAssign(t, s, 0, 1, "another old shader")

	report := s.ImportDocument(context.Background(), persist.DefaultDocument())
	if report.Restored != 0 {
		t.Errorf("Restored = %d, want 0", report.Restored)
	}
	if got := s.Renderers().LiveCount(); got != 0 {
		t.Errorf("LiveCount() = %d, want 0 (old graph leaked renderers)", got)
	}
	if _, ok := s.SlotData(0, 0); ok {
		t.Error("old slot survived the import")
	}
}

func TestImportDocument_ClampsActiveTab(t *testing.T) {
	s := newTestStore()

	doc := persist.DefaultDocument()
	doc.ActiveTab = 9

	s.ImportDocument(context.Background(), doc)
	tab, _ := s.ActiveSelection()
	if tab != 0 {
		t.Errorf("active tab = %d, want 0", tab)
	}
}

func TestImportDocument_EmptyDocumentYieldsDefaultTab(t *testing.T) {
	s := newTestStore()

	s.ImportDocument(context.Background(), &persist.Document{Version: persist.CurrentVersion})

	snap := s.Snapshot()
	if len(snap.Tabs) != 1 {
		t.Fatalf("got %d tabs, want 1", len(snap.Tabs))
	}
	if snap.Tabs[0].Name != models.DefaultTabName {
		t.Errorf("tab name = %q, want %q", snap.Tabs[0].Name, models.DefaultTabName)
	}
}

func TestImportDocument_SurfacesRebindAfterLoad(t *testing.T) {
	s := newTestStore()
	doc := &persist.Document{
		Version: persist.CurrentVersion,
		Tabs: []persist.TabDoc{{
			Name:  "Main",
			Kind:  string(models.TabKindShaders),
			Slots: []*persist.SlotDoc{{ShaderCode: "shader", Kind: models.SlotKindShader}},
		}},
	}
	s.ImportDocument(context.Background(), doc)

	// Loaded entries start surfaceless; the view attaches surfaces later
	// without recreating renderers.
	id := s.RendererHandleID(0, 0)
	s.BindSurfaces(0, map[int]render.Surface{0: render.StaticSurface("view0")})
	if s.RendererHandleID(0, 0) != id {
		t.Error("binding a surface recreated the renderer")
	}
}
