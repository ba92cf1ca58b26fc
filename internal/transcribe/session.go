// Package transcribe maintains a continuous connection to a speech
// recognition engine and exposes recognized utterances as an orderly,
// consumable stream.
//
// The engine delivers results on a goroutine it owns — effectively a foreign
// callback thread. No consumer-side state may be touched from there, so the
// Session bridges results across the boundary in two hops: the handler
// pushes onto an unbounded mutex-protected FIFO (a non-blocking operation
// safe on any goroutine), and a transfer goroutine polls that FIFO and
// forwards items into a channel that the session's consumer drains. Ordering
// is FIFO end to end; nothing in the bridge reorders.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/protokoll-app/protokoll/pkg/provider/stt"
)

const (
	// outBuffer is the capacity of the consumer-facing channel. Recognition
	// text is low-rate; the transfer goroutine simply suspends on the rare
	// occasion the consumer falls behind.
	outBuffer = 64

	// pollInterval is how long the transfer goroutine sleeps when the
	// bridge FIFO is empty, to avoid busy-spinning.
	pollInterval = 10 * time.Millisecond

	// errBackoff is the pause after an unexpected transfer failure. The
	// bridge recovers and keeps going rather than dying mid-session.
	errBackoff = 250 * time.Millisecond
)

// ErrNotRunning is returned by SendAudio when no recognition cycle is live.
var ErrNotRunning = errors.New("transcribe: session not running")

// Session wraps an stt.Engine in start/stop recognition cycles.
//
// Begin and End must be called from the same coordinating goroutine (the
// orchestrator); the running flag and SendAudio are safe from anywhere.
type Session struct {
	engine  stt.Engine
	running atomic.Bool

	mu             sync.Mutex
	pending        *fifo
	out            chan string
	transferCancel context.CancelFunc
	transferDone   chan struct{}
}

// NewSession creates a session over the given engine. The session registers
// its result handler at every Begin, so the engine must allow handler
// registration between cycles.
func NewSession(engine stt.Engine) *Session {
	return &Session{engine: engine}
}

// Running reports whether a recognition cycle is live. It flips false
// either through End or when the engine reports a cancellation event.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Transcripts returns the channel recognized utterances arrive on. The
// channel identity is stable only within one Begin/End cycle: Begin
// allocates a fresh channel, so holders must re-fetch after a restart or
// they will starve on the stale one.
func (s *Session) Transcripts() <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}

// SetLanguage updates the recognition locale for subsequent cycles. The
// engine rebuilds its connection on each start, so the change takes effect
// at the next Begin; text already buffered from a live cycle is unaffected.
// Must not be called concurrently with Begin.
func (s *Session) SetLanguage(language string) {
	s.engine.SetLanguage(language)
}

// SendAudio forwards a captured audio chunk to the engine. Returns
// ErrNotRunning between cycles.
func (s *Session) SendAudio(chunk []byte) error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	return s.engine.SendAudio(chunk)
}

// Begin starts a recognition cycle: both queues are reset, the result
// handler is registered, continuous recognition starts, and the transfer
// goroutine is spawned. A no-op when already running.
func (s *Session) Begin(ctx context.Context) error {
	if s.running.Load() {
		return nil
	}

	s.mu.Lock()
	s.pending = newFIFO()
	s.out = make(chan string, outBuffer)
	s.mu.Unlock()

	s.running.Store(true)
	s.engine.RegisterResultHandler(s.handleResult)

	if err := s.engine.StartContinuous(ctx); err != nil {
		s.running.Store(false)
		return fmt.Errorf("transcribe: start recognition: %w", err)
	}

	transferCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.transferCancel = cancel
	s.transferDone = done
	s.mu.Unlock()

	go s.transfer(transferCtx, done)

	slog.Info("continuous recognition started")
	return nil
}

// End stops the recognition cycle: the running flag clears, the engine is
// asked to stop, and the transfer goroutine is cancelled and awaited. After
// End returns no further items appear on the transcript channel and the
// engine connection is quiesced. A no-op when Begin was never called (or
// End already ran); it still performs full teardown after an engine-side
// cancellation flipped the running flag.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.transferCancel
	done := s.transferDone
	s.transferCancel = nil
	s.transferDone = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	s.running.Store(false)

	stopErr := s.engine.StopContinuous(ctx)

	cancel()
	<-done

	slog.Info("continuous recognition stopped")
	if stopErr != nil {
		return fmt.Errorf("transcribe: stop recognition: %w", stopErr)
	}
	return nil
}

// handleResult is the engine's result callback. It runs on the engine-owned
// goroutine and must never panic back into the engine or block.
func (s *Session) handleResult(r stt.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in recognition handler", "err", rec)
		}
	}()

	switch r.Kind {
	case stt.Recognized:
		slog.Debug("speech recognized", "text", r.Text)
		s.pendingQueue().push(r.Text)
	case stt.NoMatch:
		slog.Warn("no speech could be recognized")
	case stt.Canceled:
		slog.Error("recognition canceled by engine", "err", r.Err)
		s.running.Store(false)
	}
}

// pendingQueue returns the current bridge FIFO.
func (s *Session) pendingQueue() *fifo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// transfer is the single bridge between the callback-side FIFO and the
// consumer channel. It polls with short sleeps instead of blocking so the
// callback goroutine never needs a wakeup primitive, and it survives
// unexpected failures with a backoff rather than dying.
func (s *Session) transfer(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	s.mu.Lock()
	pending := s.pending
	out := s.out
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.transferOne(ctx, pending, out); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("transcript transfer error, backing off", "err", err)
			select {
			case <-time.After(errBackoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

// transferOne moves at most one item across the bridge, sleeping briefly
// when the FIFO is empty.
func (s *Session) transferOne(ctx context.Context, pending *fifo, out chan<- string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("transfer panic: %v", rec)
		}
	}()

	text, ok := pending.tryPop()
	if !ok {
		select {
		case <-time.After(pollInterval):
			return nil
		case <-ctx.Done():
			return context.Canceled
		}
	}

	select {
	case out <- text:
		return nil
	case <-ctx.Done():
		return context.Canceled
	}
}
