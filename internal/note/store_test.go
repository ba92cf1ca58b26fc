package note_test

import (
	"testing"
	"time"

	"github.com/protokoll-app/protokoll/internal/note"
)

func TestCreate_DefaultTitle(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())

	n := s.Create("", nil, nil)
	if n.Title != note.DefaultTitle {
		t.Errorf("title = %q, want %q", n.Title, note.DefaultTitle)
	}
	if s.Current() != n {
		t.Error("created note should become current")
	}
}

func TestCreate_DefaultParticipant(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir(), note.WithDefaultParticipant("Me"))

	t.Run("appended when absent", func(t *testing.T) {
		n := s.Create("A", []string{"Ana"}, nil)
		if len(n.Participants) != 2 || n.Participants[1] != "Me" {
			t.Errorf("participants = %v, want [Ana Me]", n.Participants)
		}
	})

	t.Run("not duplicated", func(t *testing.T) {
		n := s.Create("B", []string{"Me", "Ana"}, nil)
		if len(n.Participants) != 2 {
			t.Errorf("participants = %v, want [Me Ana]", n.Participants)
		}
	})
}

func TestAddContent_PunctuationGate(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())
	n := s.Create("Gate", nil, nil)

	s.AddContent("This one is complete.")
	s.AddContent("this one trails off")
	s.AddContent("Is this a question?")
	s.AddContent("  \t ")
	s.AddContent("Decisive!")

	wantRaw := "This one is complete.\nthis one trails off\nIs this a question?\nDecisive!"
	if n.RawText != wantRaw {
		t.Errorf("raw text = %q, want %q", n.RawText, wantRaw)
	}

	wantContent := []string{"This one is complete.", "Is this a question?", "Decisive!"}
	if len(n.Content) != len(wantContent) {
		t.Fatalf("content = %v, want %v", n.Content, wantContent)
	}
	for i := range wantContent {
		if n.Content[i] != wantContent[i] {
			t.Errorf("content[%d] = %q, want %q", i, n.Content[i], wantContent[i])
		}
	}
}

func TestAddContent_SavesAfterEachAdd(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())
	n := s.Create("Persist", nil, nil)

	s.AddContent("Saved immediately.")
	if n.FilePath == "" {
		t.Fatal("note should be saved (and get a path) after the first add")
	}

	loaded, err := note.Load(n.FilePath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RawText != "Saved immediately." {
		t.Errorf("persisted raw text = %q, want %q", loaded.RawText, "Saved immediately.")
	}
}

func TestAddContent_NoCurrentMeeting(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())

	// Must not panic or create anything; the fragment is dropped.
	s.AddContent("orphaned text.")
	if s.Current() != nil {
		t.Error("no current note should appear")
	}
	if notes := s.List(); len(notes) != 0 {
		t.Errorf("store should stay empty, got %d notes", len(notes))
	}
}

func TestEndCurrent(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())
	n := s.Create("Ending", nil, nil)
	s.AddContent("Some words were said.")

	s.EndCurrent()
	if s.Current() != nil {
		t.Error("current should be cleared after EndCurrent")
	}
	if n.EndTime == nil {
		t.Fatal("end time should be set")
	}
	if n.Metadata["word_count"] != "4" {
		t.Errorf("word_count = %q, want %q", n.Metadata["word_count"], "4")
	}

	// A second call is a no-op.
	s.EndCurrent()
}

func TestLoad_CacheIdentity(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())
	n := s.Create("Cached", nil, nil)
	if err := s.SaveCurrent(); err != nil {
		t.Fatalf("save: %v", err)
	}

	first, err := s.Load(n.FilePath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := s.Load(n.FilePath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first != second {
		t.Error("repeated loads of the same path should return the same object")
	}
	if first != n {
		t.Error("a note saved through the store should be served from the cache")
	}
}

func TestList_NewestFirst(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())

	older := s.Create("Older", nil, nil)
	older.StartTime = time.Now().Add(-time.Hour)
	if err := s.Save(older); err != nil {
		t.Fatalf("save older: %v", err)
	}

	newer := s.Create("Newer", nil, nil)
	if err := s.Save(newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	notes := s.List()
	if len(notes) != 2 {
		t.Fatalf("list returned %d notes, want 2", len(notes))
	}
	if notes[0].Title != "Newer" || notes[1].Title != "Older" {
		t.Errorf("order = [%s, %s], want [Newer, Older]", notes[0].Title, notes[1].Title)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())

	a := s.Create("Budget Review", []string{"Clara"}, []string{"finance"})
	a.Content = []string{"We approved the Q3 budget."}
	if err := s.Save(a); err != nil {
		t.Fatalf("save: %v", err)
	}

	b := s.Create("Standup", []string{"Dev Team"}, nil)
	b.Content = []string{"Deployment is blocked."}
	if err := s.Save(b); err != nil {
		t.Fatalf("save: %v", err)
	}

	cases := []struct {
		query string
		want  int
	}{
		{"budget", 1},    // title and content, case-insensitive
		{"CLARA", 1},     // participant
		{"finance", 1},   // tag
		{"blocked", 1},   // content only
		{"nonexistent", 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			if got := len(s.Search(tc.query)); got != tc.want {
				t.Errorf("search %q returned %d notes, want %d", tc.query, got, tc.want)
			}
		})
	}
}

func TestUpdateCurrent(t *testing.T) {
	t.Parallel()
	s := note.NewStore(t.TempDir())
	n := s.Create("Draft", []string{"Ana"}, nil)

	s.UpdateCurrent("Final", []string{"Ana", "Ben"}, []string{"planning"})
	if n.Title != "Final" {
		t.Errorf("title = %q, want %q", n.Title, "Final")
	}
	if len(n.Participants) != 2 || len(n.Tags) != 1 {
		t.Errorf("participants/tags not updated: %v %v", n.Participants, n.Tags)
	}

	// Without a current meeting the update is dropped.
	s.SetCurrent(nil)
	s.UpdateCurrent("Ignored", nil, nil)
}
