package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/patchbay-vj/patchbay/internal/logging"
	"github.com/patchbay-vj/patchbay/internal/media"
	"github.com/patchbay-vj/patchbay/internal/store"
)

// clientSendBuffer bounds the per-client outbound queue. A slow client
// skips broadcasts rather than stalling the broker; it catches up on its
// next state query.
const clientSendBuffer = 32

// Server is the remote query/response and command surface: an HTTP API
// plus a websocket channel for structured queries and fire-and-forget
// commands.
type Server struct {
	logger   zerolog.Logger
	store    *store.Store
	library  *media.Library
	addr     string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMediaLibrary serves library entries over /api/media.
func WithMediaLibrary(lib *media.Library) ServerOption {
	return func(s *Server) {
		s.library = lib
	}
}

// NewServer creates a remote server for the given store.
func NewServer(st *store.Store, addr string, opts ...ServerOption) *Server {
	s := &Server{
		logger:  logging.Component("remote"),
		store:   st,
		addr:    addr,
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWS)
	r.Get("/api/state", s.handleState)
	r.Get("/api/thumbnail/{tab}/{slot}", s.handleThumbnail)
	if s.library != nil {
		r.Get("/api/media", s.handleMediaList)
		r.Get("/api/media/{id}", s.handleMedia)
	}
	return r
}

// Serve runs the server until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{Handler: s.Router()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", listener.Addr().String()).Msg("remote server listening")
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// NotifyStateChanged broadcasts a state-changed notification to every
// connected client. Wired as a Publisher handler so remote clients learn
// about local and remote mutations alike.
func (s *Server) NotifyStateChanged() {
	msg, err := json.Marshal(Envelope{Type: MsgStateChanged})
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			// Client is not keeping up; it will re-query on reconnect
			// or its next state request.
		}
	}
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// client is one connected websocket peer. A dedicated writer goroutine
// owns the connection's write side.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	logger := logging.WithClient(c.id)
	logger.Info().Msg("remote client connected")

	go s.writeLoop(c)
	s.readLoop(c, logger)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	close(c.send)
	logger.Info().Msg("remote client disconnected")
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (s *Server) readLoop(c *client, logger zerolog.Logger) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.reply(env.Token, MsgError, map[string]string{"message": "malformed message"})
			continue
		}
		s.handleMessage(c, env, logger)
	}
}

func (s *Server) handleMessage(c *client, env Envelope, logger zerolog.Logger) {
	switch env.Type {
	case MsgState:
		c.reply(env.Token, MsgState, s.store.Snapshot())

	case MsgThumbnail:
		var q ThumbnailQuery
		if err := json.Unmarshal(env.Payload, &q); err != nil {
			c.reply(env.Token, MsgError, map[string]string{"message": "malformed thumbnail query"})
			return
		}
		img, status := s.store.CaptureThumbnail(q.Tab, q.Slot)
		if !status.OK() {
			c.reply(env.Token, MsgError, status)
			return
		}
		c.reply(env.Token, MsgThumbnail, ThumbnailReply{Tab: q.Tab, Slot: q.Slot, Image: img})

	case MsgCommand:
		var cmd Command
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			c.reply(env.Token, MsgError, map[string]string{"message": "malformed command"})
			return
		}
		status := Dispatch(s.store, cmd)
		if !status.OK() {
			logger.Warn().Str("action", cmd.Action).Str("status", status.Message).Msg("command rejected")
		}
		c.reply(env.Token, MsgStatus, status)

	default:
		c.reply(env.Token, MsgError, map[string]string{
			"message": fmt.Sprintf("unknown message type %q", env.Type),
		})
	}
}

// reply sends a typed response echoing the correlation token unchanged.
func (c *client) reply(token json.RawMessage, typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg, err := json.Marshal(Envelope{Token: token, Type: typ, Payload: data})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.Snapshot()); err != nil {
		s.logger.Warn().Err(err).Msg("state encode failed")
	}
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	tab, err := strconv.Atoi(chi.URLParam(r, "tab"))
	if err != nil {
		http.Error(w, "bad tab index", http.StatusBadRequest)
		return
	}
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		http.Error(w, "bad slot index", http.StatusBadRequest)
		return
	}

	img, status := s.store.CaptureThumbnail(tab, slot)
	if !status.OK() {
		http.Error(w, status.Message, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}

func (s *Server) handleMediaList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.library.Entries(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.logger.Warn().Err(err).Msg("media list encode failed")
	}
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	entry, err := s.library.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, media.ErrEntryNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	path, err := s.library.AbsolutePath(entry.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.ServeFile(w, r, path)
}
