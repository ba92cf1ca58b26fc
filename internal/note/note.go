// Package note implements the meeting note document model and its on-disk
// store.
//
// A Note is one meeting: metadata, the accumulated transcript, and a derived
// summary. Notes persist as self-contained JSON files keyed by the meeting's
// start timestamp and sanitized title. The Store owns the single "current"
// note open for writing and an identity cache so repeated loads of the same
// path return the same in-memory object.
package note

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Note represents a meeting note with metadata and content.
//
// RawText is the append-only, newline-joined concatenation of every fragment
// ever added, in arrival order. Content holds only the fragments that end in
// terminal punctuation (".", "!", "?"). Both are written exclusively through
// Store.AddContent during recording; the note itself carries no locking
// because a single consumer goroutine is the only writer.
type Note struct {
	Title        string            `json:"title"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      *time.Time        `json:"end_time"`
	Participants []string          `json:"participants"`
	Tags         []string          `json:"tags"`
	Content      []string          `json:"content"`
	RawText      string            `json:"raw_text"`
	Summary      string            `json:"summary"`
	Metadata     map[string]string `json:"metadata"`

	// FilePath is assigned on first save and not serialized; a loaded note
	// gets the path it was loaded from.
	FilePath string `json:"-"`
}

// NewNote creates a note starting now with the given title.
func NewNote(title string, participants, tags []string) *Note {
	return &Note{
		Title:        title,
		StartTime:    time.Now(),
		Participants: participants,
		Tags:         tags,
		Metadata:     map[string]string{},
	}
}

// Duration returns the meeting duration, or zero when the meeting has not
// ended yet.
func (n *Note) Duration() time.Duration {
	if n.EndTime == nil {
		return 0
	}
	return n.EndTime.Sub(n.StartTime)
}

// WordCount returns the total whitespace-delimited token count across
// Content.
func (n *Note) WordCount() int {
	total := 0
	for _, c := range n.Content {
		total += len(strings.Fields(c))
	}
	return total
}

// wordsPerMinute computes the average words per minute, rounded to two
// decimal places. Returns 0 for meetings without a duration.
func (n *Note) wordsPerMinute() float64 {
	d := n.Duration()
	if d <= 0 {
		return 0
	}
	minutes := d.Minutes()
	return math.Round(float64(n.WordCount())/minutes*100) / 100
}

// EndMeeting freezes the end time and computes derived metadata. The end
// time, once set, is never changed by a later call.
func (n *Note) EndMeeting(endTime time.Time) {
	if n.EndTime == nil {
		if endTime.IsZero() {
			endTime = time.Now()
		}
		n.EndTime = &endTime
	}

	if n.Metadata == nil {
		n.Metadata = map[string]string{}
	}
	n.Metadata["duration"] = n.Duration().String()
	n.Metadata["word_count"] = fmt.Sprintf("%d", n.WordCount())
	n.Metadata["average_words_per_minute"] = fmt.Sprintf("%.2f", n.wordsPerMinute())
}

// Filename derives the canonical on-disk filename for this note:
// <YYYYMMDD_HHMMSS>_<sanitized-title>.json. Every run of characters that is
// not a letter or digit collapses to a single underscore.
func (n *Note) Filename() string {
	return fmt.Sprintf("%s_%s.json", n.StartTime.Format("20060102_150405"), sanitizeTitle(n.Title))
}

// UpdateFilePath re-derives FilePath inside its current directory after a
// title change. A note that was never saved keeps an empty path.
func (n *Note) UpdateFilePath() {
	if n.FilePath == "" {
		return
	}
	n.FilePath = filepath.Join(filepath.Dir(n.FilePath), n.Filename())
}

// Save writes the note as indented JSON into dir. The file path is derived
// from the start time and title on first save and reused afterwards.
func (n *Note) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("note: create storage dir: %w", err)
	}

	if n.FilePath == "" {
		n.FilePath = filepath.Join(dir, n.Filename())
	}

	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("note: marshal: %w", err)
	}
	if err := os.WriteFile(n.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("note: write %s: %w", n.FilePath, err)
	}
	return nil
}

// Load reads a note from path. All serialized fields round-trip exactly.
func Load(path string) (*Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("note: read %s: %w", path, err)
	}

	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("note: unmarshal %s: %w", path, err)
	}
	if n.Metadata == nil {
		n.Metadata = map[string]string{}
	}
	n.FilePath = path
	return &n, nil
}

// sanitizeTitle replaces every non-alphanumeric run with a single underscore
// and trims leading/trailing underscores.
func sanitizeTitle(title string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
