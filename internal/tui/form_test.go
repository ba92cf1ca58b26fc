package tui

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestSplitList(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "Ana, Ben", []string{"Ana", "Ben"}},
		{"extra whitespace", "  Ana ,Ben ,  Clara ", []string{"Ana", "Ben", "Clara"}},
		{"empty segments dropped", "Ana,,Ben,", []string{"Ana", "Ben"}},
		{"empty input", "", nil},
		{"only commas", ", ,,", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := splitList(tc.input); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("splitList(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestMeetingForm_CycleFocus(t *testing.T) {
	t.Parallel()
	f := newMeetingForm(DefaultStyles())

	if !f.title.Focused() {
		t.Fatal("title should be focused initially")
	}

	f.cycleFocus(1)
	if f.title.Focused() || !f.participants.Focused() {
		t.Error("tab should move focus to participants")
	}

	f.cycleFocus(1)
	f.cycleFocus(1)
	if !f.title.Focused() {
		t.Error("focus should wrap back to title")
	}

	f.cycleFocus(-1)
	if !f.tags.Focused() {
		t.Error("shift+tab from title should wrap to tags")
	}
}

func TestMeetingForm_Submit(t *testing.T) {
	t.Parallel()
	f := newMeetingForm(DefaultStyles())
	f.title.SetValue("  Sprint Review ")
	f.participants.SetValue("Ana, Ben")
	f.tags.SetValue("planning")

	res, _ := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if res == nil {
		t.Fatal("enter should submit the form")
	}
	if res.Title != "Sprint Review" {
		t.Errorf("title = %q, want trimmed", res.Title)
	}
	if !reflect.DeepEqual(res.Participants, []string{"Ana", "Ben"}) {
		t.Errorf("participants = %v", res.Participants)
	}
	if !reflect.DeepEqual(res.Tags, []string{"planning"}) {
		t.Errorf("tags = %v", res.Tags)
	}
}

func TestMeetingForm_TabDoesNotSubmit(t *testing.T) {
	t.Parallel()
	f := newMeetingForm(DefaultStyles())

	if res, _ := f.Update(tea.KeyMsg{Type: tea.KeyTab}); res != nil {
		t.Error("tab must not submit the form")
	}
}

func TestMeetingForm_EditHeading(t *testing.T) {
	t.Parallel()
	f := newMeetingForm(DefaultStyles())
	f.setValues("Standup", []string{"Ana"}, []string{"daily"})

	if !f.editing {
		t.Error("setValues should mark the form as editing")
	}
	if f.title.Value() != "Standup" {
		t.Errorf("title = %q", f.title.Value())
	}
	if f.participants.Value() != "Ana" {
		t.Errorf("participants = %q", f.participants.Value())
	}
	if !strings.Contains(f.View(), "Edit Meeting") {
		t.Error("view should render the edit heading")
	}
}
