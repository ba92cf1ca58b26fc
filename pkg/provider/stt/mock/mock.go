// Package mock provides a test double for the stt.Engine interface.
//
// Use Engine to verify start/stop call counts and to inject recognition
// results from a test-controlled goroutine, simulating the engine-owned
// callback thread of a real backend:
//
//	eng := &mock.Engine{}
//	sess.Begin(ctx)
//	go eng.Emit(stt.Result{Kind: stt.Recognized, Text: "hello."})
package mock

import (
	"context"
	"sync"

	"github.com/protokoll-app/protokoll/pkg/provider/stt"
)

// Engine is a mock implementation of stt.Engine.
type Engine struct {
	mu sync.Mutex

	// StartErr, if non-nil, is returned from StartContinuous.
	StartErr error

	// StopErr, if non-nil, is returned from StopContinuous.
	StopErr error

	// SendErr, if non-nil, is returned from SendAudio.
	SendErr error

	// StartCalls counts StartContinuous invocations.
	StartCalls int

	// StopCalls counts StopContinuous invocations.
	StopCalls int

	// SentChunks records copies of every chunk passed to SendAudio.
	SentChunks [][]byte

	// Languages records every SetLanguage argument in call order.
	Languages []string

	handler stt.Handler
	started bool
}

// Ensure Engine implements stt.Engine at compile time.
var _ stt.Engine = (*Engine)(nil)

// RegisterResultHandler stores the handler for later Emit calls.
func (e *Engine) RegisterResultHandler(h stt.Handler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// StartContinuous records the call and returns StartErr.
func (e *Engine) StartContinuous(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StartCalls++
	if e.StartErr != nil {
		return e.StartErr
	}
	e.started = true
	return nil
}

// StopContinuous records the call and returns StopErr.
func (e *Engine) StopContinuous(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StopCalls++
	e.started = false
	return e.StopErr
}

// SendAudio records a copy of chunk and returns SendErr.
func (e *Engine) SendAudio(chunk []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SendErr != nil {
		return e.SendErr
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	e.SentChunks = append(e.SentChunks, c)
	return nil
}

// SetLanguage records the language.
func (e *Engine) SetLanguage(language string) {
	e.mu.Lock()
	e.Languages = append(e.Languages, language)
	e.mu.Unlock()
}

// Sent returns a snapshot of the chunks recorded by SendAudio. Thread-safe.
func (e *Engine) Sent() [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]byte, len(e.SentChunks))
	copy(out, e.SentChunks)
	return out
}

// Started reports whether the engine is between StartContinuous and
// StopContinuous. Thread-safe.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Emit invokes the registered handler with r, mimicking the engine's own
// callback goroutine. It is a no-op when no handler is registered.
func (e *Engine) Emit(r stt.Result) {
	e.mu.Lock()
	h := e.handler
	e.mu.Unlock()
	if h != nil {
		h(r)
	}
}
