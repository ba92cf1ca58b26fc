package note_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/protokoll-app/protokoll/internal/note"
)

func TestRenderMarkdown_FullNote(t *testing.T) {
	t.Parallel()
	n := note.NewNote("Sprint Review", []string{"Ana", "Ben"}, []string{"sprint", "demo"})
	n.Content = []string{"Demo went well.", "Two bugs found."}
	n.RawText = "Demo went well.\num\nTwo bugs found."
	n.Summary = "The sprint demo succeeded with minor issues."
	n.EndMeeting(n.StartTime.Add(30 * time.Minute))

	md := note.RenderMarkdown(n)

	for _, want := range []string{
		"# Sprint Review",
		"## Attendees\nAna, Ben",
		"## Goals\n1. *No goals set*",
		"## Action Items\n- [ ] *No action items set*",
		"- Demo went well.",
		"- Two bugs found.",
		"- Duration: 30m0s",
		"- Tags: sprint, demo",
		"The sprint demo succeeded with minor issues.",
		"```\nDemo went well.\num\nTwo bugs found.\n```",
		"- word_count: 6",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown should contain %q\n---\n%s", want, md)
		}
	}

	if strings.Index(md, "## Goals") > strings.Index(md, "## Discussion Notes") {
		t.Error("goals should render before the discussion notes")
	}
	if strings.Index(md, "## Action Items") < strings.Index(md, "## Discussion Notes") {
		t.Error("action items should follow the discussion notes")
	}
}

func TestRenderMarkdown_EmptyNote(t *testing.T) {
	t.Parallel()
	n := note.NewNote("Empty", nil, nil)
	md := note.RenderMarkdown(n)

	for _, want := range []string{
		"- *No notes taken*",
		"- Duration: Ongoing",
		"*No summary available*",
		"*No transcript available*",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown should contain %q\n---\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Metadata") {
		t.Error("empty metadata should not render a Metadata section")
	}
}

func TestSaveMarkdown_NextToJSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	n := note.NewNote("Export", nil, nil)
	if err := n.Save(dir); err != nil {
		t.Fatalf("save json: %v", err)
	}

	if err := note.SaveMarkdown(n, dir); err != nil {
		t.Fatalf("save markdown: %v", err)
	}

	want := strings.TrimSuffix(n.FilePath, ".json") + ".md"
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("markdown file should sit next to the json file: %v", err)
	}
	if !strings.Contains(string(data), "# Export") {
		t.Error("markdown file should contain the rendered note")
	}
}

func TestProtocolWriter(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "protocol.txt")
	w := note.NewProtocolWriter(path)

	// Entries before Start are dropped silently.
	if err := w.WriteEntry("too early"); err != nil {
		t.Fatalf("entry before start: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.WriteEntry("First utterance."); err != nil {
		t.Fatalf("entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read protocol: %v", err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "Protocol - ") {
		t.Errorf("protocol should start with a header, got %q", text)
	}
	if !strings.Contains(text, strings.Repeat("=", 50)) {
		t.Error("header should contain the separator line")
	}
	if strings.Contains(text, "too early") {
		t.Error("entries before Start must not be written")
	}
	if !strings.Contains(text, "] First utterance.") {
		t.Errorf("entry missing or unstamped: %q", text)
	}
	if !strings.Contains(text, "Protocol ended - ") {
		t.Error("footer missing")
	}
}
