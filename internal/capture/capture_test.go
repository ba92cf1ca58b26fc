package capture_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/protokoll-app/protokoll/internal/capture"
)

func TestSilent_EmitsZeroChunks(t *testing.T) {
	t.Parallel()
	src := capture.NewSilent(capture.Config{SampleRate: 16000, FramesPerChunk: 256})
	defer src.Close()

	ch, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	select {
	case chunk := <-ch:
		// 256 frames × 2 bytes per 16-bit sample.
		if len(chunk) != 512 {
			t.Errorf("chunk size = %d, want 512", len(chunk))
		}
		for i, b := range chunk {
			if b != 0 {
				t.Fatalf("byte %d = %d, want 0", i, b)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("no chunk emitted within a second")
	}
}

func TestSilent_CloseStopsEmission(t *testing.T) {
	t.Parallel()
	src := capture.NewSilent(capture.Config{SampleRate: 16000, FramesPerChunk: 128})

	ch, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return // channel closed, producer stopped
			}
		case <-deadline:
			t.Fatal("channel not closed after Close")
		}
	}
}

func TestSilent_CloseBeforeOpen(t *testing.T) {
	t.Parallel()
	src := capture.NewSilent(capture.Config{})
	if err := src.Close(); err != nil {
		t.Errorf("close before open: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestSilent_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	src := capture.NewSilent(capture.Config{SampleRate: 16000, FramesPerChunk: 128})
	defer src.Close()

	ch, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after context cancellation")
		}
	}
}

func TestLevelCallback_PanicContained(t *testing.T) {
	t.Parallel()
	src := capture.NewSilent(capture.Config{
		SampleRate:     16000,
		FramesPerChunk: 128,
		Level: func([]byte) {
			panic("meter exploded")
		},
	})
	defer src.Close()

	ch, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// The producer must survive the panicking callback and keep emitting.
	for range 3 {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("producer died after level callback panic")
		}
	}
}

func TestRMSLevel(t *testing.T) {
	t.Parallel()

	t.Run("silence", func(t *testing.T) {
		t.Parallel()
		if got := capture.RMSLevel(make([]byte, 64)); got != 0 {
			t.Errorf("silence level = %f, want 0", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		if got := capture.RMSLevel(nil); got != 0 {
			t.Errorf("empty chunk level = %f, want 0", got)
		}
	})

	t.Run("full scale", func(t *testing.T) {
		t.Parallel()
		chunk := make([]byte, 32)
		for i := 0; i < len(chunk); i += 2 {
			binary.LittleEndian.PutUint16(chunk[i:], uint16(math.MaxInt16))
		}
		got := capture.RMSLevel(chunk)
		if got < 0.99 || got > 1.01 {
			t.Errorf("full-scale level = %f, want ≈1.0", got)
		}
	})
}
