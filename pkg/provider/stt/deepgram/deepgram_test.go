package deepgram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/protokoll-app/protokoll/pkg/provider/stt"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty apiKey")
	}
	eng, err := New("key")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if eng.model != defaultModel || eng.language != defaultLanguage || eng.sampleRate != defaultSampleRate {
		t.Errorf("defaults not applied: %+v", eng)
	}
}

func TestBuildURL(t *testing.T) {
	t.Parallel()
	eng, err := New("key", WithModel("base"), WithLanguage("de-DE"), WithSampleRate(44100))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	raw, err := eng.buildURL()
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasPrefix(raw, "wss://api.deepgram.com/v1/listen?") {
		t.Errorf("unexpected endpoint: %s", raw)
	}

	q := u.Query()
	want := map[string]string{
		"model":           "base",
		"language":        "de-DE",
		"punctuate":       "true",
		"interim_results": "false",
		"encoding":        "linear16",
		"sample_rate":     "44100",
		"channels":        "1",
	}
	for key, val := range want {
		if got := q.Get(key); got != val {
			t.Errorf("query %s = %q, want %q", key, got, val)
		}
	}
}

func TestBuildURL_LanguageChangeAppliesToNextStream(t *testing.T) {
	t.Parallel()
	eng, err := New("key")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	eng.SetLanguage("de-DE")

	eng.mu.Lock()
	raw, err := eng.buildURL()
	eng.mu.Unlock()
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}
	if !strings.Contains(raw, "language=de-DE") {
		t.Errorf("URL %s should carry the updated language", raw)
	}
}

func TestParseResponse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		payload  string
		wantOK   bool
		wantKind stt.ResultKind
		wantText string
	}{
		{
			name:     "final result",
			payload:  `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"Hello there.","confidence":0.97}]}}`,
			wantOK:   true,
			wantKind: stt.Recognized,
			wantText: "Hello there.",
		},
		{
			name:    "interim result ignored",
			payload: `{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"Hello th"}]}}`,
			wantOK:  false,
		},
		{
			name:    "metadata ignored",
			payload: `{"type":"Metadata","request_id":"abc"}`,
			wantOK:  false,
		},
		{
			name:     "empty transcript is no match",
			payload:  `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":""}]}}`,
			wantOK:   true,
			wantKind: stt.NoMatch,
		},
		{
			name:     "no alternatives is no match",
			payload:  `{"type":"Results","is_final":true,"channel":{"alternatives":[]}}`,
			wantOK:   true,
			wantKind: stt.NoMatch,
		},
		{
			name:    "malformed JSON ignored",
			payload: `{"type":"Results"`,
			wantOK:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, ok := parseResponse([]byte(tc.payload))
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if res.Kind != tc.wantKind {
				t.Errorf("kind = %v, want %v", res.Kind, tc.wantKind)
			}
			if res.Text != tc.wantText {
				t.Errorf("text = %q, want %q", res.Text, tc.wantText)
			}
		})
	}
}

func TestParseResponse_Confidence(t *testing.T) {
	t.Parallel()
	res, ok := parseResponse([]byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"Hi.","confidence":0.85}]}}`))
	if !ok {
		t.Fatal("expected a result")
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", res.Confidence)
	}
}

func TestStreamClose_UnresponsiveServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		// Swallow messages and never initiate a close handshake.
		for {
			if _, _, err := c.Read(r.Context()); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	s := &stream{
		conn:    conn,
		handler: func(stt.Result) {},
		audio:   make(chan []byte, 1),
		done:    make(chan struct{}),
	}
	s.wg.Add(2)
	go s.readLoop(context.Background())
	go s.writeLoop(context.Background())

	closeCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	s.close(closeCtx)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("close took %v, want it bounded by the context deadline", elapsed)
	}
}

func TestSendAudio_NotStreaming(t *testing.T) {
	t.Parallel()
	eng, err := New("key")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := eng.SendAudio([]byte{0, 0}); err != ErrNotStreaming {
		t.Errorf("err = %v, want ErrNotStreaming", err)
	}
}
