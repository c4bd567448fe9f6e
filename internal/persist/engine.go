package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patchbay-vj/patchbay/internal/logging"
	"github.com/patchbay-vj/patchbay/internal/models"
)

// Parse decodes a raw document, migrating legacy layouts. The second
// return value reports whether migration was applied; callers should
// force a synchronous re-save in that case to complete the one-way
// migration.
func Parse(data []byte) (*Document, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return DefaultDocument(), false, nil
	}

	// Legacy layout: a bare array of slot entries.
	if trimmed[0] == '[' {
		var entries []*SlotDoc
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, false, fmt.Errorf("legacy document unreadable: %w", err)
		}
		return migrateLegacy(entries), true, nil
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, false, fmt.Errorf("document unreadable: %w", err)
	}
	if doc.Version == 0 {
		// Object form without a version field is unknown; start fresh
		// rather than guessing at its layout.
		return DefaultDocument(), false, nil
	}

	migrated := normalize(&doc)
	return &doc, migrated, nil
}

// migrateLegacy lifts a flat slot array into the tabbed layout: empty
// and invalid entries are dropped, the survivors are compacted into a
// single default tab.
func migrateLegacy(entries []*SlotDoc) *Document {
	doc := DefaultDocument()
	for _, entry := range entries {
		if entry.IsEmpty() {
			continue
		}
		if entry.Kind == "" {
			entry.Kind = models.SlotKindShader
		}
		doc.Tabs[0].Slots = append(doc.Tabs[0].Slots, entry)
	}
	logger := logging.Component("persist")
	logger.Info().
		Int("entries", len(doc.Tabs[0].Slots)).
		Msg("migrated legacy flat-array document")
	return doc
}

// normalize enforces the current layout on a versioned document:
// compacts slot lists, folds retired "presets" tabs into the top-level
// visual preset list, and clamps the active tab index. Returns true when
// anything had to change.
func normalize(doc *Document) bool {
	changed := doc.Version != CurrentVersion
	doc.Version = CurrentVersion

	tabs := doc.Tabs[:0]
	for _, tab := range doc.Tabs {
		if tab.Kind == legacyPresetTabKind {
			doc.VisualPresets = append(doc.VisualPresets, tab.VisualPresets...)
			changed = true
			continue
		}
		if !models.TabKind(tab.Kind).Valid() {
			changed = true
			continue
		}
		compacted := tab.Slots[:0]
		for _, slot := range tab.Slots {
			if slot.IsEmpty() {
				if slot != nil {
					changed = true
				}
				continue
			}
			compacted = append(compacted, slot)
		}
		if len(compacted) != len(tab.Slots) {
			changed = true
		}
		tab.Slots = compacted
		tab.VisualPresets = nil
		tabs = append(tabs, tab)
	}
	doc.Tabs = tabs

	if len(doc.Tabs) == 0 {
		doc.Tabs = DefaultDocument().Tabs
		changed = true
	}
	if doc.ActiveTab < 0 || doc.ActiveTab >= len(doc.Tabs) {
		doc.ActiveTab = 0
		changed = true
	}
	if doc.ActiveSection == "" {
		doc.ActiveSection = string(models.TabKindShaders)
	}
	return changed
}

// Serialize encodes a document for writing.
func Serialize(doc *Document) ([]byte, error) {
	doc.Version = CurrentVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return append(data, '\n'), nil
}

// Load reads and parses the document at path. A missing file yields the
// default document without error.
func Load(path string) (*Document, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultDocument(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// Write serializes the document and writes it atomically: the content
// lands in a temp file first and is renamed over the target, so a crash
// mid-write never truncates the previous document.
func Write(path string, doc *Document) error {
	data, err := Serialize(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
