// Package stt defines the Engine interface for continuous speech-to-text
// backends.
//
// An STT engine wraps a real-time transcription service (e.g., Deepgram or a
// local Whisper server) in continuous-recognition mode: the caller feeds raw
// PCM audio with SendAudio and receives recognition events through a result
// handler registered before the stream starts.
//
// The handler is invoked on a goroutine owned by the engine, never on the
// caller's goroutine. Callers that need to hand results to their own
// scheduling context must bridge them through a thread-safe structure; see
// the transcribe package for the canonical consumer.
package stt

import "context"

// ResultKind discriminates the recognition events an engine can emit.
type ResultKind int

const (
	// Recognized carries a committed utterance in Result.Text.
	Recognized ResultKind = iota

	// NoMatch means the engine processed audio but could not recognize
	// speech in it. Text is empty.
	NoMatch

	// Canceled means the engine terminated the recognition stream on its
	// side (network failure, credential rejection, service shutdown). No
	// further results will be delivered until the stream is restarted.
	Canceled
)

// String returns the lowercase name of the result kind.
func (k ResultKind) String() string {
	switch k {
	case Recognized:
		return "recognized"
	case NoMatch:
		return "nomatch"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Result is one recognition event from a continuous-recognition stream.
type Result struct {
	// Kind discriminates the event.
	Kind ResultKind

	// Text is the recognized utterance. Set only when Kind is Recognized.
	Text string

	// Confidence is the engine's confidence score (0.0–1.0). May be zero
	// for engines that do not report confidence.
	Confidence float64

	// Err carries the engine-side cause when Kind is Canceled, if known.
	Err error
}

// Handler receives recognition events. It runs on an engine-owned goroutine
// and must return quickly; blocking the handler stalls the engine's read
// loop.
type Handler func(Result)

// Engine is the abstraction over a continuous speech-recognition backend.
//
// Lifecycle: RegisterResultHandler, then StartContinuous, then any number of
// SendAudio calls, then StopContinuous. A stopped engine may be started
// again; each start establishes a fresh connection, so configuration changes
// made between cycles (SetLanguage) take effect on the next start.
type Engine interface {
	// RegisterResultHandler sets the callback for recognition events.
	// Must be called before StartContinuous. Replacing the handler while a
	// stream is live is not supported.
	RegisterResultHandler(h Handler)

	// StartContinuous opens the recognition stream. Returns an error if the
	// connection cannot be established or a stream is already live.
	StartContinuous(ctx context.Context) error

	// StopContinuous closes the recognition stream, flushes pending audio,
	// and waits for the engine's goroutines to exit. Safe to call when no
	// stream is live.
	StopContinuous(ctx context.Context) error

	// SendAudio delivers a chunk of raw PCM audio for recognition. Returns
	// an error when no stream is live.
	SendAudio(chunk []byte) error

	// SetLanguage updates the recognition locale (BCP-47 tag) for
	// subsequent streams. Must not be called concurrently with
	// StartContinuous.
	SetLanguage(language string)
}
