package persist

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/patchbay-vj/patchbay/internal/logging"
)

// DefaultDebounce is the save coalescing window. Rapid successive edits
// inside the window produce a single write reflecting the last edit.
const DefaultDebounce = 750 * time.Millisecond

// Saver debounces document writes. Request schedules a write; each new
// request resets the pending timer, coalescing bursts of edits. Flush
// forces a synchronous write, which operations that depend on saved-state
// consistency (migration completion, shutdown) must call.
type Saver struct {
	mu       sync.Mutex
	logger   zerolog.Logger
	interval time.Duration
	save     func() error
	timer    *time.Timer
	closed   bool
}

// NewSaver creates a saver around a save function.
func NewSaver(interval time.Duration, save func() error) *Saver {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Saver{
		logger:   logging.Component("persist"),
		interval: interval,
		save:     save,
	}
}

// Request schedules a debounced write. A pending timer is reset rather
// than stacked, so N edits inside the window yield one write.
func (s *Saver) Request() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.interval, s.fire)
}

func (s *Saver) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	if err := s.save(); err != nil {
		s.logger.Error().Err(err).Msg("debounced save failed")
	}
}

// Flush cancels any pending timer and writes synchronously.
func (s *Saver) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return nil
	}
	return s.save()
}

// Close flushes and stops the saver; further requests are ignored.
func (s *Saver) Close() error {
	err := s.Flush()

	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return err
}
