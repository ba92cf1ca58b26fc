package note

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTitle is used when a meeting is created without a title.
const DefaultTitle = "Untitled Meeting"

// Store manages persistence and retrieval of meeting notes in a storage
// directory. It owns at most one "current" note — the note open for writing —
// and an identity cache mapping file paths to loaded notes so repeated loads
// return the same in-memory object.
//
// Store methods are safe for concurrent use, but the recording pipeline
// guarantees a single writer: only the orchestrator's consumer goroutine
// calls AddContent while recording, and UI edits are only reachable when not
// recording.
type Store struct {
	dir                string
	defaultParticipant string

	mu      sync.Mutex
	current *Note
	cache   map[string]*Note
}

// Option is a functional option for NewStore.
type Option func(*Store)

// WithDefaultParticipant injects the given name into every created meeting's
// participant list unless already present.
func WithDefaultParticipant(name string) Option {
	return func(s *Store) {
		s.defaultParticipant = name
	}
}

// NewStore creates a store over the given storage directory.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:   dir,
		cache: map[string]*Note{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// Create creates a new meeting note and sets it as current. An empty title
// defaults to DefaultTitle. The configured default participant is appended
// when not already listed.
func (s *Store) Create(title string, participants, tags []string) *Note {
	if title == "" {
		title = DefaultTitle
	}

	ps := append([]string(nil), participants...)
	if s.defaultParticipant != "" && !contains(ps, s.defaultParticipant) {
		ps = append(ps, s.defaultParticipant)
	}

	n := NewNote(title, ps, append([]string(nil), tags...))

	s.mu.Lock()
	s.current = n
	s.mu.Unlock()
	return n
}

// Current returns the note open for writing, or nil.
func (s *Store) Current() *Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrent makes n the note open for writing. Pass nil to close.
func (s *Store) SetCurrent(n *Note) {
	s.mu.Lock()
	s.current = n
	s.mu.Unlock()
}

// AddContent appends recognized text to the current meeting. Leading and
// trailing whitespace is stripped; empty fragments are discarded. Every kept
// fragment is appended to RawText; fragments ending in terminal punctuation
// also join the structured Content list. The note is saved after each add.
//
// AddContent never fails upward: without a current meeting it logs a warning
// and returns, and save errors are logged rather than propagated, because a
// transient disk hiccup must not abort the recording session.
func (s *Store) AddContent(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		slog.Warn("no active meeting to add content to")
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if s.current.RawText == "" {
		s.current.RawText = text
	} else {
		s.current.RawText += "\n" + text
	}

	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		s.current.Content = append(s.current.Content, text)
	}

	if err := s.current.Save(s.dir); err != nil {
		slog.Error("failed to save meeting after content update", "err", err)
	}
}

// Save persists a note and registers it in the cache.
func (s *Store) Save(n *Note) error {
	if err := n.Save(s.dir); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache[n.FilePath] = n
	s.mu.Unlock()
	slog.Info("saved meeting", "path", n.FilePath)
	return nil
}

// SaveCurrent persists the current note, if any.
func (s *Store) SaveCurrent() error {
	n := s.Current()
	if n == nil {
		return nil
	}
	return s.Save(n)
}

// EndCurrent ends the current meeting, persists it, and clears the current
// reference. A no-op when no meeting is open.
func (s *Store) EndCurrent() {
	n := s.Current()
	if n == nil {
		return
	}
	n.EndMeeting(time.Now())
	if err := s.Save(n); err != nil {
		slog.Error("failed to save ended meeting", "err", err)
	}
	s.SetCurrent(nil)
}

// Load returns the note stored at path, from the cache when already loaded.
func (s *Store) Load(path string) (*Note, error) {
	s.mu.Lock()
	if n, ok := s.cache[path]; ok {
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()

	n, err := Load(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[path] = n
	s.mu.Unlock()
	return n, nil
}

// List returns all stored meetings, newest first. Files that fail to load
// are logged and skipped.
func (s *Store) List() []*Note {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		slog.Error("failed to list meetings", "dir", s.dir, "err", err)
		return nil
	}

	var notes []*Note
	for _, p := range paths {
		n, err := s.Load(p)
		if err != nil {
			slog.Error("failed to load meeting", "path", p, "err", err)
			continue
		}
		notes = append(notes, n)
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].StartTime.After(notes[j].StartTime)
	})
	return notes
}

// Search returns stored meetings whose title, participants, tags, or content
// contain query, case-insensitively.
func (s *Store) Search(query string) []*Note {
	query = strings.ToLower(query)

	var results []*Note
	for _, n := range s.List() {
		if matchesQuery(n, query) {
			results = append(results, n)
		}
	}
	return results
}

// UpdateCurrent overwrites the current meeting's title, participants, and
// tags, then persists. Without a current meeting it logs and returns.
func (s *Store) UpdateCurrent(title string, participants, tags []string) {
	n := s.Current()
	if n == nil {
		slog.Warn("no current meeting to update")
		return
	}

	n.Title = title
	n.Participants = append([]string(nil), participants...)
	n.Tags = append([]string(nil), tags...)

	if err := s.Save(n); err != nil {
		slog.Error("failed to save updated meeting", "err", err)
	}
}

func matchesQuery(n *Note, query string) bool {
	if strings.Contains(strings.ToLower(n.Title), query) {
		return true
	}
	for _, p := range n.Participants {
		if strings.Contains(strings.ToLower(p), query) {
			return true
		}
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	for _, c := range n.Content {
		if strings.Contains(strings.ToLower(c), query) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
