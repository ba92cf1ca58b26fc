package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Live is a Source backed by the default PortAudio input device.
//
// Each Open initializes PortAudio, opens a mono 16-bit input stream, and
// spawns a reader goroutine; Close stops the stream and terminates the
// library. A read error mid-stream terminates the chunk sequence (the
// channel closes) instead of surfacing to the consumer — the session
// orchestrator treats a closed audio channel as end-of-capture.
type Live struct {
	cfg Config

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool
}

// NewLive creates a live microphone source with the given config.
func NewLive(cfg Config) *Live {
	return &Live{cfg: cfg.withDefaults()}
}

// Open acquires the default input device and starts the reader goroutine.
func (l *Live) Open(ctx context.Context) (<-chan []byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil, fmt.Errorf("capture: source already open")
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: initialize portaudio: %w", err)
	}

	in := make([]int16, l.cfg.FramesPerChunk)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(l.cfg.SampleRate), len(in), in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("capture: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("capture: start input stream: %w", err)
	}

	l.stream = stream
	l.running = true

	ch := make(chan []byte)
	go l.readLoop(ctx, stream, in, ch)
	return ch, nil
}

// readLoop reads device buffers and forwards them as byte chunks until the
// device fails, Close is called, or ctx is cancelled.
func (l *Live) readLoop(ctx context.Context, stream *portaudio.Stream, in []int16, ch chan<- []byte) {
	defer close(ch)

	for {
		if ctx.Err() != nil || !l.isRunning() {
			return
		}

		if err := stream.Read(); err != nil {
			// Close racing the read lands here too; either way the
			// sequence ends gracefully.
			if l.isRunning() {
				slog.Error("audio read failed, ending capture", "err", err)
			}
			return
		}

		chunk := samplesToBytes(in)
		l.cfg.emitLevel(chunk)

		select {
		case ch <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the device. Idempotent; safe before any Open and safe to
// call while the reader goroutine is mid-read (the next read fails
// gracefully).
func (l *Live) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return nil
	}
	l.running = false

	if err := l.stream.Stop(); err != nil {
		slog.Warn("audio stream stop error", "err", err)
	}
	if err := l.stream.Close(); err != nil {
		slog.Warn("audio stream close error", "err", err)
	}
	l.stream = nil

	if err := portaudio.Terminate(); err != nil {
		slog.Warn("portaudio terminate error", "err", err)
	}
	return nil
}

func (l *Live) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// samplesToBytes converts 16-bit samples to little-endian PCM bytes, the
// wire format the recognition service expects.
func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
