// Package record coordinates the recording pipeline: it owns the
// Stopped/Recording/Paused state machine and wires the audio source, the
// transcription session, and the note store together while a recording is
// live.
package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/protokoll-app/protokoll/internal/capture"
	"github.com/protokoll-app/protokoll/internal/note"
	"github.com/protokoll-app/protokoll/internal/observe"
	"github.com/protokoll-app/protokoll/internal/state"
	"github.com/protokoll-app/protokoll/internal/transcribe"
)

// consumerTick bounds how long the transcript consumer blocks before
// re-checking whether the recording is still live.
const consumerTick = 500 * time.Millisecond

// State is the recording lifecycle state.
type State int

const (
	// Stopped means no recording is in progress.
	Stopped State = iota

	// Recording means audio is being captured and transcribed.
	Recording

	// Paused means the session is suspended; the note stays open and
	// recording can resume into it.
	Paused
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Severity classifies a user-facing notice.
type Severity int

const (
	// SeverityInfo is an informational notice.
	SeverityInfo Severity = iota

	// SeverityWarning flags a refused action or degraded behavior.
	SeverityWarning

	// SeverityError flags a failure.
	SeverityError
)

// EventKind identifies what an [Event] carries.
type EventKind int

const (
	// EventStateChanged signals a lifecycle transition; State is set.
	EventStateChanged EventKind = iota

	// EventTranscript signals an utterance was appended; Text is set.
	EventTranscript

	// EventNotice carries a user-facing message; Text and Severity are set.
	EventNotice

	// EventLevel carries an audio input level sample; Level is set.
	EventLevel
)

// Event is a notification emitted by the orchestrator for the UI to render.
type Event struct {
	Kind     EventKind
	State    State
	Text     string
	Severity Severity
	Level    float64
}

// ErrNoActiveMeeting is returned by Start when no meeting note is open.
var ErrNoActiveMeeting = errors.New("record: no active meeting")

// Orchestrator drives the recording pipeline. All exported methods are safe
// for concurrent use; Stop in particular may be called from a signal handler
// goroutine while the UI calls other methods.
type Orchestrator struct {
	session *transcribe.Session
	source  capture.Source
	store   *note.Store
	app     *state.App

	metrics  *observe.Metrics
	protocol *note.ProtocolWriter
	markdown bool

	events chan Event

	mu        sync.Mutex
	st        State
	runCancel context.CancelFunc
	group     *errgroup.Group

	// tearingDown is set while teardownLocked releases the session. The
	// consumer's liveness check reads it without the mutex: the session
	// reports not-running the moment End starts, and the consumer stays
	// alive until the cancel near the end of teardown, so without this
	// flag a slow engine release would look like an engine failure and a
	// pause would auto-stop the recording.
	tearingDown atomic.Bool
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithProtocol attaches a live protocol writer that receives every
// recognized utterance as it arrives.
func WithProtocol(w *note.ProtocolWriter) Option {
	return func(o *Orchestrator) { o.protocol = w }
}

// WithMarkdownExport controls whether a Markdown rendering of the note is
// written next to the JSON file when a recording stops. Enabled by default.
func WithMarkdownExport(enabled bool) Option {
	return func(o *Orchestrator) { o.markdown = enabled }
}

// NewOrchestrator creates an orchestrator in the Stopped state.
func NewOrchestrator(session *transcribe.Session, source capture.Source, store *note.Store, app *state.App, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:  session,
		source:   source,
		store:    store,
		app:      app,
		markdown: true,
		events:   make(chan Event, 128),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st
}

// Events returns the channel of UI notifications. The channel is never
// closed; events are dropped when the consumer falls behind.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// NotifyLevel publishes an audio input level sample to the event channel.
// Intended as a [capture.LevelFunc]; called from the capture goroutine.
func (o *Orchestrator) NotifyLevel(chunk []byte) {
	o.emit(Event{Kind: EventLevel, Level: capture.RMSLevel(chunk)})
}

// Start begins a recording into the currently open meeting note. It is a
// no-op (with a warning notice) when a recording is already live; it fails
// with [ErrNoActiveMeeting] when no note is open.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.st != Stopped {
		o.notice(SeverityWarning, "Recording is already in progress")
		return nil
	}
	if o.store.Current() == nil {
		o.notice(SeverityWarning, "Create a meeting before starting a recording")
		return ErrNoActiveMeeting
	}

	if err := o.startLocked(ctx); err != nil {
		return err
	}

	o.st = Recording
	o.app.SetProcessing(true)
	o.metrics.ActiveRecordings.Add(ctx, 1)
	if o.protocol != nil {
		if err := o.protocol.Start(); err != nil {
			slog.Warn("protocol writer unavailable", "error", err)
		}
	}
	o.setState(Recording)
	slog.Info("recording started", "title", o.store.Current().Title, "language", o.app.Language())
	return nil
}

// startLocked brings up the session, the audio source, and the pipeline
// goroutines. On failure everything already started is torn down again in
// reverse order. Caller holds o.mu.
func (o *Orchestrator) startLocked(ctx context.Context) error {
	o.session.SetLanguage(string(o.app.Language()))
	if err := o.session.Begin(ctx); err != nil {
		o.notice(SeverityError, "Could not start transcription: "+err.Error())
		return fmt.Errorf("record: begin transcription: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	chunks, err := o.source.Open(runCtx)
	if err != nil {
		cancel()
		if endErr := o.session.End(ctx); endErr != nil {
			slog.Error("session teardown after failed start", "error", endErr)
		}
		o.notice(SeverityError, "Could not open audio input: "+err.Error())
		return fmt.Errorf("record: open audio source: %w", err)
	}

	g, gctx := errgroup.WithContext(runCtx)
	transcripts := o.session.Transcripts()
	g.Go(func() error { return o.pump(gctx, chunks) })
	g.Go(func() error { return o.consume(gctx, transcripts) })

	o.runCancel = cancel
	o.group = g
	return nil
}

// Pause suspends a live recording. The meeting note stays open; the engine
// connection is released and rebuilt on Resume.
func (o *Orchestrator) Pause(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.st != Recording {
		o.notice(SeverityWarning, "No recording to pause")
		return nil
	}

	if err := o.teardownLocked(ctx); err != nil {
		slog.Error("pause teardown", "error", err)
	}

	o.st = Paused
	o.app.SetProcessing(false)
	o.setState(Paused)
	slog.Info("recording paused")
	return nil
}

// Resume restarts a paused recording into the same meeting note. The
// transcript channel is re-fetched because the session allocates a fresh one
// per cycle.
func (o *Orchestrator) Resume(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.st != Paused {
		o.notice(SeverityWarning, "No paused recording to resume")
		return nil
	}

	if err := o.startLocked(ctx); err != nil {
		return err
	}

	o.st = Recording
	o.app.SetProcessing(true)
	o.setState(Recording)
	slog.Info("recording resumed", "language", o.app.Language())
	return nil
}

// Stop ends the recording and finalizes the meeting note: the end time is
// stamped, duration metadata is computed, and the note is saved. Idempotent;
// stopping from Paused skips the already-released pipeline.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.st == Stopped {
		return nil
	}
	wasRecording := o.st == Recording

	if err := o.teardownLocked(ctx); err != nil {
		slog.Error("stop teardown", "error", err)
	}

	o.st = Stopped
	o.app.SetProcessing(false)
	o.metrics.ActiveRecordings.Add(ctx, -1)

	current := o.store.Current()
	o.store.EndCurrent()
	if o.protocol != nil {
		if err := o.protocol.Close(); err != nil {
			slog.Warn("protocol writer close", "error", err)
		}
	}
	if o.markdown && current != nil {
		if err := note.SaveMarkdown(current, o.store.Dir()); err != nil {
			slog.Warn("markdown export", "error", err)
		}
	}

	o.setState(Stopped)
	slog.Info("recording stopped", "was_recording", wasRecording)
	return nil
}

// teardownLocked releases the pipeline in producer-first order: the audio
// source stops feeding, the session flushes and disconnects, then the
// consumer goroutines are cancelled and awaited. Caller holds o.mu.
func (o *Orchestrator) teardownLocked(ctx context.Context) error {
	if o.runCancel == nil {
		return nil
	}

	o.tearingDown.Store(true)
	defer o.tearingDown.Store(false)

	var errs []error
	if err := o.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close audio source: %w", err))
	}
	if err := o.session.End(ctx); err != nil {
		errs = append(errs, fmt.Errorf("end transcription: %w", err))
	}

	o.runCancel()
	o.runCancel = nil
	if o.group != nil {
		if err := o.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
		o.group = nil
	}
	return errors.Join(errs...)
}

// pump forwards captured audio chunks into the recognition engine until the
// source closes its channel or the run context is cancelled.
func (o *Orchestrator) pump(ctx context.Context, chunks <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			if err := o.session.SendAudio(chunk); err != nil {
				if errors.Is(err, transcribe.ErrNotRunning) {
					continue
				}
				slog.Warn("audio chunk dropped", "error", err)
				continue
			}
			o.metrics.AudioChunks.Add(ctx, 1)
		}
	}
}

// consume drains recognized utterances into the note store. Each wait is
// bounded by consumerTick so the loop can notice a dead session (engine-side
// cancellation) and schedule an automatic stop instead of blocking forever.
func (o *Orchestrator) consume(ctx context.Context, transcripts <-chan string) error {
	ticker := time.NewTicker(consumerTick)
	defer ticker.Stop()

	stopScheduled := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-transcripts:
			if !ok {
				return nil
			}
			o.handleTranscript(ctx, text)
		case <-ticker.C:
			if !o.session.Running() && !o.tearingDown.Load() && !stopScheduled {
				stopScheduled = true
				o.notice(SeverityError, "Transcription was interrupted; stopping the recording")
				o.metrics.RecordEngineError(ctx, "session")
				// Stop takes o.mu and waits for this goroutine, so it
				// must run outside of it.
				go func() {
					if err := o.Stop(context.Background()); err != nil {
						slog.Error("automatic stop", "error", err)
					}
				}()
			}
		}
	}
}

// handleTranscript appends one utterance to the active note and fans it out
// to the protocol writer and the UI.
func (o *Orchestrator) handleTranscript(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	o.store.AddContent(text)
	if o.protocol != nil {
		if err := o.protocol.WriteEntry(text); err != nil {
			slog.Warn("protocol entry", "error", err)
		}
	}
	o.metrics.RecordUtterance(ctx, string(o.app.Language()))
	o.emit(Event{Kind: EventTranscript, Text: text})
}

// notice publishes a user-facing message and mirrors it to the log.
func (o *Orchestrator) notice(sev Severity, msg string) {
	switch sev {
	case SeverityError:
		slog.Error(msg)
	case SeverityWarning:
		slog.Warn(msg)
	default:
		slog.Info(msg)
	}
	o.emit(Event{Kind: EventNotice, Text: msg, Severity: sev})
}

func (o *Orchestrator) setState(s State) {
	o.emit(Event{Kind: EventStateChanged, State: s})
}

// emit performs a non-blocking send; a slow or absent UI must not stall the
// pipeline.
func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
	}
}
