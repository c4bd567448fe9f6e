package broker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/render"
	"github.com/patchbay-vj/patchbay/internal/store"
)

// fakeConn records pushed messages in order.
type fakeConn struct {
	mu   sync.Mutex
	sent []outputMessage
}

func (c *fakeConn) Send(data []byte) error {
	var msg outputMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) messages() []outputMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]outputMessage(nil), c.sent...)
}

func (c *fakeConn) waitFor(t *testing.T, n int) []outputMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := c.messages(); len(msgs) >= n {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d messages, have %d", n, len(c.messages()))
	return nil
}

func newOutputStore() *store.Store {
	return store.New(render.NewManager(render.NullCompiler{}))
}

func paramChange(name string, value float64) models.Change {
	c := models.NewChange(models.ChangeTypeSlotParams, 0, 0)
	c.Params = models.Params{name: value}
	return c
}

func TestPusher_BatchesParamChanges(t *testing.T) {
	st := newOutputStore()
	conn := &fakeConn{}
	p := NewPusher(st, conn, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.HandleChange(paramChange("speed", 0.1))
	p.HandleChange(paramChange("speed", 0.2))
	p.HandleChange(paramChange("hue", 0.9))

	msgs := conn.waitFor(t, 1)
	if msgs[0].Type != "params" {
		t.Fatalf("message type = %q, want params", msgs[0].Type)
	}

	var batch models.Params
	if err := json.Unmarshal(msgs[0].Payload, &batch); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if len(batch) != 2 {
		t.Errorf("batch = %v, want 2 coalesced params", batch)
	}
	if batch["speed"] != 0.2 {
		t.Errorf("speed = %v, want the last write", batch["speed"])
	}

	// A single combined message, not one per change.
	time.Sleep(60 * time.Millisecond)
	if got := len(conn.messages()); got != 1 {
		t.Errorf("got %d messages, want 1", got)
	}
}

func TestPusher_ContentChangeFlushesParamsFirst(t *testing.T) {
	st := newOutputStore()
	conn := &fakeConn{}
	p := NewPusher(st, conn, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	// The long window would hold the batch; the content change must
	// force it out first so ordering is preserved.
	p.HandleChange(paramChange("speed", 0.5))
	p.HandleChange(models.NewChange(models.ChangeTypeSlotContent, 0, 0))

	msgs := conn.waitFor(t, 2)
	if msgs[0].Type != "params" {
		t.Errorf("first message = %q, want params", msgs[0].Type)
	}
	if msgs[1].Type != "state" {
		t.Errorf("second message = %q, want state", msgs[1].Type)
	}
}

func TestPusher_NonParamChangeSendsSnapshot(t *testing.T) {
	st := newOutputStore()
	conn := &fakeConn{}
	p := NewPusher(st, conn, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.HandleChange(models.NewChange(models.ChangeTypeMixer, -1, -1))

	msgs := conn.waitFor(t, 1)
	if msgs[0].Type != "state" {
		t.Fatalf("message type = %q, want state", msgs[0].Type)
	}

	var snap store.OutputSnapshot
	if err := json.Unmarshal(msgs[0].Payload, &snap); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if snap.Mode != models.RenderModeSingle {
		t.Errorf("snapshot mode = %q", snap.Mode)
	}
}

func TestPusher_RunStopsOnCancel(t *testing.T) {
	st := newOutputStore()
	conn := &fakeConn{}
	p := NewPusher(st, conn, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	cancel()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
