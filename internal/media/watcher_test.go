package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloadEvent struct {
	tab     int
	slot    int
	content string
}

func newTestWatcher(t *testing.T) (*Watcher, chan reloadEvent) {
	t.Helper()
	events := make(chan reloadEvent, 8)
	w, err := NewWatcher(func(_ context.Context, tab, slot int, content string) {
		events <- reloadEvent{tab: tab, slot: slot, content: content}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w, events
}

func waitEvent(t *testing.T, events chan reloadEvent) reloadEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("no reload delivered")
		return reloadEvent{}
	}
}

func TestWatcher_ReloadOnWrite(t *testing.T) {
	w, events := newTestWatcher(t)

	path := filepath.Join(t.TempDir(), "live.frag")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	require.NoError(t, w.Watch(path, 0, 3))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	ev := waitEvent(t, events)
	assert.Equal(t, 0, ev.tab)
	assert.Equal(t, 3, ev.slot)
	assert.Equal(t, "v2", ev.content)
}

func TestWatcher_SharedPathFansOut(t *testing.T) {
	w, events := newTestWatcher(t)

	path := filepath.Join(t.TempDir(), "shared.frag")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	require.NoError(t, w.Watch(path, 0, 0))
	require.NoError(t, w.Watch(path, 1, 2))
	// Re-registering the same slot is a no-op.
	require.NoError(t, w.Watch(path, 0, 0))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	got := map[reloadEvent]bool{
		waitEvent(t, events): true,
		waitEvent(t, events): true,
	}
	assert.True(t, got[reloadEvent{tab: 0, slot: 0, content: "v2"}])
	assert.True(t, got[reloadEvent{tab: 1, slot: 2, content: "v2"}])
}

func TestWatcher_Unwatch(t *testing.T) {
	w, events := newTestWatcher(t)

	path := filepath.Join(t.TempDir(), "dropped.frag")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	require.NoError(t, w.Watch(path, 0, 0))
	w.Unwatch(path, 0, 0)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	select {
	case ev := <-events:
		t.Fatalf("unexpected reload after unwatch: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_UnwatchKeepsSharedRegistrations(t *testing.T) {
	w, events := newTestWatcher(t)

	path := filepath.Join(t.TempDir(), "partial.frag")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	require.NoError(t, w.Watch(path, 0, 0))
	require.NoError(t, w.Watch(path, 0, 1))
	w.Unwatch(path, 0, 0)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	ev := waitEvent(t, events)
	assert.Equal(t, reloadEvent{tab: 0, slot: 1, content: "v2"}, ev)
}
