// Package deepgram provides a Deepgram-backed STT engine using the Deepgram
// streaming WebSocket API. It implements the stt.Engine interface.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/protokoll-app/protokoll/pkg/provider/stt"
)

const (
	deepgramEndpoint  = "wss://api.deepgram.com/v1/listen"
	defaultModel      = "nova-3"
	defaultLanguage   = "en-US"
	defaultSampleRate = 16000

	// closeGrace bounds how long close waits for the server to complete the
	// close handshake after CloseStream before force-closing the socket.
	closeGrace = 5 * time.Second
)

// ErrNotStreaming is returned by SendAudio when no stream is live.
var ErrNotStreaming = errors.New("deepgram: no active stream")

// Option is a functional option for configuring the Deepgram Engine.
type Option func(*Engine)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(e *Engine) {
		e.model = model
	}
}

// WithLanguage sets the BCP-47 language code for recognition (e.g., "en-US").
func WithLanguage(language string) Option {
	return func(e *Engine) {
		e.language = language
	}
}

// WithSampleRate sets the PCM sample rate in Hz announced to Deepgram.
func WithSampleRate(rate int) Option {
	return func(e *Engine) {
		e.sampleRate = rate
	}
}

// Engine implements stt.Engine backed by the Deepgram streaming API.
//
// Each StartContinuous call dials a fresh WebSocket connection, so language
// changes made between recognition cycles take effect on the next start.
type Engine struct {
	apiKey     string
	model      string
	sampleRate int

	mu       sync.Mutex
	language string
	handler  stt.Handler
	str      *stream
}

// New creates a new Deepgram Engine. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Engine, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	e := &Engine{
		apiKey:     apiKey,
		model:      defaultModel,
		language:   defaultLanguage,
		sampleRate: defaultSampleRate,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// RegisterResultHandler sets the recognition event callback.
func (e *Engine) RegisterResultHandler(h stt.Handler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// SetLanguage updates the recognition locale for subsequent streams.
func (e *Engine) SetLanguage(language string) {
	e.mu.Lock()
	e.language = language
	e.mu.Unlock()
}

// StartContinuous dials Deepgram and begins delivering results to the
// registered handler. The handler is invoked on the connection's read-loop
// goroutine.
func (e *Engine) StartContinuous(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.str != nil {
		return errors.New("deepgram: stream already started")
	}
	if e.handler == nil {
		return errors.New("deepgram: no result handler registered")
	}

	wsURL, err := e.buildURL()
	if err != nil {
		return fmt.Errorf("deepgram: build URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+e.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return fmt.Errorf("deepgram: dial: %w", err)
	}

	s := &stream{
		conn:    conn,
		handler: e.handler,
		audio:   make(chan []byte, 256),
		done:    make(chan struct{}),
	}
	s.wg.Add(2)
	go s.readLoop(context.Background())
	go s.writeLoop(context.Background())

	e.str = s
	return nil
}

// StopContinuous closes the live stream and waits for its goroutines to
// exit. It is a no-op when no stream is live.
func (e *Engine) StopContinuous(ctx context.Context) error {
	e.mu.Lock()
	s := e.str
	e.str = nil
	e.mu.Unlock()

	if s == nil {
		return nil
	}
	s.close(ctx)
	return nil
}

// SendAudio queues a PCM audio chunk for delivery to Deepgram.
func (e *Engine) SendAudio(chunk []byte) error {
	e.mu.Lock()
	s := e.str
	e.mu.Unlock()

	if s == nil {
		return ErrNotStreaming
	}
	return s.send(chunk)
}

// buildURL constructs the Deepgram streaming endpoint URL. Callers must hold
// e.mu.
func (e *Engine) buildURL() (string, error) {
	u, err := url.Parse(deepgramEndpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("model", e.model)
	q.Set("language", e.language)
	q.Set("punctuate", "true")
	q.Set("interim_results", "false")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(e.sampleRate))
	q.Set("channels", "1")

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ---- stream ----

// deepgramResponse is the JSON structure returned by Deepgram for a Results
// event.
type deepgramResponse struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// stream is one live Deepgram connection.
type stream struct {
	conn    *websocket.Conn
	handler stt.Handler
	audio   chan []byte

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// send queues an audio chunk for the write loop.
func (s *stream) send(chunk []byte) error {
	select {
	case <-s.done:
		return ErrNotStreaming
	default:
	}
	select {
	case s.audio <- chunk:
		return nil
	case <-s.done:
		return ErrNotStreaming
	}
}

// close tells Deepgram to flush, stops both loops, and closes the socket.
// The wait for the server-side close handshake is bounded by ctx and
// closeGrace; a stalled server gets the socket force-closed, which unblocks
// the read loop.
func (s *stream) close(ctx context.Context) {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`))

		waited := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(waited)
		}()

		timer := time.NewTimer(closeGrace)
		defer timer.Stop()
		select {
		case <-waited:
		case <-ctx.Done():
		case <-timer.C:
		}

		s.conn.Close(websocket.StatusNormalClosure, "stream closed")
		<-waited
	})
}

// writeLoop drains the audio channel into binary WebSocket messages.
func (s *stream) writeLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case chunk := <-s.audio:
			if err := s.conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
				return
			}
		case <-s.done:
			// Flush whatever is still queued before exiting.
			for {
				select {
				case chunk := <-s.audio:
					_ = s.conn.Write(ctx, websocket.MessageBinary, chunk)
				default:
					return
				}
			}
		}
	}
}

// readLoop receives JSON messages from Deepgram and dispatches them to the
// handler. A read failure while the stream is still supposed to be live is
// surfaced as a Canceled result so the consumer can tear down.
func (s *stream) readLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			select {
			case <-s.done:
				// Expected close; nothing to report.
			default:
				s.handler(stt.Result{Kind: stt.Canceled, Err: err})
			}
			return
		}

		res, ok := parseResponse(msg)
		if !ok {
			continue
		}
		s.handler(res)
	}
}

// parseResponse parses a raw Deepgram WebSocket message into a Result.
// Returns (zero, false) for messages that should be ignored (metadata,
// interim results).
func parseResponse(data []byte) (stt.Result, bool) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return stt.Result{}, false
	}
	if resp.Type != "Results" || !resp.IsFinal {
		return stt.Result{}, false
	}
	if len(resp.Channel.Alternatives) == 0 {
		return stt.Result{Kind: stt.NoMatch}, true
	}

	alt := resp.Channel.Alternatives[0]
	if alt.Transcript == "" {
		return stt.Result{Kind: stt.NoMatch}, true
	}
	return stt.Result{
		Kind:       stt.Recognized,
		Text:       alt.Transcript,
		Confidence: alt.Confidence,
	}, true
}
