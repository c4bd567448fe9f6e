package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/patchbay-vj/patchbay/internal/logging"
	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/store"
)

// OutputConn is the one-way push channel to the output process. No
// acknowledgment is expected.
type OutputConn interface {
	Send(data []byte) error
	Close() error
}

// DefaultBatchWindow bounds the message rate under rapid parameter
// edits: parameter-only changes inside the window coalesce into one
// combined update.
const DefaultBatchWindow = 50 * time.Millisecond

// outputMessage is the envelope pushed to the output process.
type outputMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Pusher forwards store changes to the output surface. A single
// goroutine owns the connection, so messages for the same logical change
// are observed in the order they were issued: a content change flushes
// any pending parameter batch before its snapshot goes out.
type Pusher struct {
	logger zerolog.Logger
	store  *store.Store
	conn   OutputConn
	window time.Duration

	changes chan models.Change
	done    chan struct{}
}

// NewPusher creates a pusher over an established output connection.
func NewPusher(st *store.Store, conn OutputConn, window time.Duration) *Pusher {
	if window <= 0 {
		window = DefaultBatchWindow
	}
	return &Pusher{
		logger:  logging.Component("output"),
		store:   st,
		conn:    conn,
		window:  window,
		changes: make(chan models.Change, 256),
		done:    make(chan struct{}),
	}
}

// HandleChange enqueues a store change for pushing. Safe for use as a
// Publisher handler. Drops the change if the queue is saturated; a later
// snapshot will carry the state anyway.
func (p *Pusher) HandleChange(change models.Change) {
	select {
	case p.changes <- change:
	default:
		p.logger.Warn().Str("type", string(change.Type)).Msg("output queue full, change dropped")
	}
}

// Run owns the output connection until the context is cancelled. It
// coalesces parameter-only changes into one combined update per batch
// window and sends a full snapshot for everything else.
func (p *Pusher) Run(ctx context.Context) {
	defer close(p.done)
	defer p.conn.Close()

	var (
		pending models.Params
		timer   *time.Timer
		timerC  <-chan time.Time
	)

	flushParams := func() {
		if len(pending) == 0 {
			return
		}
		p.send("params", pending)
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			flushParams()
			return

		case change := <-p.changes:
			if change.Type == models.ChangeTypeSlotParams && len(change.Params) > 0 {
				if pending == nil {
					pending = models.Params{}
				}
				for name, value := range change.Params {
					pending[name] = value
				}
				if timer == nil {
					timer = time.NewTimer(p.window)
					timerC = timer.C
				}
				continue
			}

			// Any non-parameter change flushes the pending batch first
			// so the output never sees a reordering.
			if timer != nil {
				timer.Stop()
				timer = nil
				timerC = nil
			}
			flushParams()
			p.send("state", p.store.OutputSnapshot())

		case <-timerC:
			timer = nil
			timerC = nil
			flushParams()
		}
	}
}

// Done is closed when Run returns.
func (p *Pusher) Done() <-chan struct{} {
	return p.done
}

func (p *Pusher) send(typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("type", typ).Msg("output payload marshal failed")
		return
	}
	msg, err := json.Marshal(outputMessage{Type: typ, Payload: data})
	if err != nil {
		p.logger.Error().Err(err).Str("type", typ).Msg("output envelope marshal failed")
		return
	}
	if err := p.conn.Send(msg); err != nil {
		p.logger.Warn().Err(err).Str("type", typ).Msg("output push failed")
	}
}

// WSOutput is an OutputConn over a websocket client connection.
type WSOutput struct {
	conn *websocket.Conn
}

// DialOutput connects to the output process at url.
func DialOutput(url string) (*WSOutput, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &WSOutput{conn: conn}, nil
}

// Send implements OutputConn.
func (w *WSOutput) Send(data []byte) error {
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// Close implements OutputConn.
func (w *WSOutput) Close() error {
	w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.conn.Close()
}
