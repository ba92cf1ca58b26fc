// Package capture produces the microphone audio feed for the recording
// pipeline.
//
// A Source yields an unending sequence of fixed-size PCM chunks. Two
// implementations exist, selected at construction: Live reads the default
// input device through PortAudio, and Silent emits zero-filled chunks at the
// real-time cadence for machines without a usable input device (or when
// capture is disabled in config). Consumers never see the difference.
//
// Sources never fail into their consumer: device errors degrade to stream
// termination (the chunk channel closes), and a faulty level callback is
// caught and logged rather than allowed to kill the capture loop.
package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultSampleRate is the PCM sample rate used when the config does
	// not override it. 16 kHz mono is what the recognition service expects.
	DefaultSampleRate = 16000

	// DefaultFramesPerChunk is the number of samples per chunk. At 16 kHz
	// this is 64 ms of audio per chunk.
	DefaultFramesPerChunk = 1024
)

// LevelFunc receives each raw chunk as a side effect, for driving a UI
// level meter. It runs on the capture goroutine and must be fast.
type LevelFunc func(chunk []byte)

// Source is a microphone input producing fixed-size PCM chunks.
//
// Open starts the producer and returns its chunk channel. The channel closes
// when the source is closed or the device fails. The sequence is not
// restartable through the same channel; each Open yields a fresh one.
// Close is idempotent, safe before any Open, and safe to call from a
// different goroutine than the producer's consumer.
type Source interface {
	Open(ctx context.Context) (<-chan []byte, error)
	Close() error
}

// Config holds the audio format shared by all sources.
type Config struct {
	// SampleRate in Hz. Zero means DefaultSampleRate.
	SampleRate int

	// FramesPerChunk is the samples per emitted chunk. Zero means
	// DefaultFramesPerChunk. Chunks are 16-bit mono, so the byte size of a
	// chunk is twice this value.
	FramesPerChunk int

	// Level, when non-nil, is invoked with every raw chunk.
	Level LevelFunc
}

func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.FramesPerChunk == 0 {
		c.FramesPerChunk = DefaultFramesPerChunk
	}
	return c
}

// chunkBytes is the byte size of one chunk (16-bit samples).
func (c Config) chunkBytes() int { return c.FramesPerChunk * 2 }

// chunkInterval is the real-time duration one chunk represents.
func (c Config) chunkInterval() time.Duration {
	return time.Duration(c.FramesPerChunk) * time.Second / time.Duration(c.SampleRate)
}

// emitLevel calls the level callback, containing any panic it raises. A
// defect in UI-side level rendering must not abort audio capture.
func (c Config) emitLevel(chunk []byte) {
	if c.Level == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("audio level callback panicked", "err", r)
		}
	}()
	c.Level(chunk)
}

// Silent is a Source that emits zero-filled chunks at the real-time cadence.
// Used when capture is disabled or no input device is available.
type Silent struct {
	cfg Config

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSilent creates a silent source with the given config.
func NewSilent(cfg Config) *Silent {
	return &Silent{cfg: cfg.withDefaults()}
}

// Open starts emitting zero chunks on a ticker until Close or ctx
// cancellation.
func (s *Silent) Open(ctx context.Context) (<-chan []byte, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	ch := make(chan []byte)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.cfg.chunkInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				chunk := make([]byte, s.cfg.chunkBytes())
				s.cfg.emitLevel(chunk)
				select {
				case ch <- chunk:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// Close stops the producer. Idempotent; safe before any Open.
func (s *Silent) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}
