package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formResult carries the submitted meeting details out of the form.
type formResult struct {
	Title        string
	Participants []string
	Tags         []string
}

// meetingForm is the modal input form for creating or editing a meeting.
type meetingForm struct {
	styles *Styles

	title        textinput.Model
	participants textinput.Model
	tags         textinput.Model

	focus   int
	editing bool
}

// newMeetingForm creates an empty form. When editing, the caller pre-fills
// the inputs via setValues.
func newMeetingForm(s *Styles) *meetingForm {
	title := textinput.New()
	title.Placeholder = "Meeting title"
	title.CharLimit = 120
	title.Focus()

	participants := textinput.New()
	participants.Placeholder = "Participants (comma separated)"
	participants.CharLimit = 240

	tags := textinput.New()
	tags.Placeholder = "Tags (comma separated)"
	tags.CharLimit = 240

	return &meetingForm{
		styles:       s,
		title:        title,
		participants: participants,
		tags:         tags,
	}
}

// setValues pre-fills the form for editing an existing meeting.
func (f *meetingForm) setValues(title string, participants, tags []string) {
	f.editing = true
	f.title.SetValue(title)
	f.participants.SetValue(strings.Join(participants, ", "))
	f.tags.SetValue(strings.Join(tags, ", "))
}

// inputs returns the fields in focus order.
func (f *meetingForm) inputs() []*textinput.Model {
	return []*textinput.Model{&f.title, &f.participants, &f.tags}
}

// cycleFocus moves focus by delta, wrapping around.
func (f *meetingForm) cycleFocus(delta int) {
	in := f.inputs()
	f.focus = (f.focus + delta + len(in)) % len(in)
	for i, field := range in {
		if i == f.focus {
			field.Focus()
		} else {
			field.Blur()
		}
	}
}

// Update forwards msg to the focused input and handles focus movement.
// Returns the submitted result when the user confirms with enter.
func (f *meetingForm) Update(msg tea.Msg) (*formResult, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.cycleFocus(1)
			return nil, nil
		case "shift+tab", "up":
			f.cycleFocus(-1)
			return nil, nil
		case "enter":
			return &formResult{
				Title:        strings.TrimSpace(f.title.Value()),
				Participants: splitList(f.participants.Value()),
				Tags:         splitList(f.tags.Value()),
			}, nil
		}
	}

	var cmds []tea.Cmd
	for _, field := range f.inputs() {
		var cmd tea.Cmd
		*field, cmd = field.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return nil, tea.Batch(cmds...)
}

// View renders the form pane.
func (f *meetingForm) View() string {
	heading := "New Meeting"
	if f.editing {
		heading = "Edit Meeting"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		f.styles.Title.Render(heading),
		"",
		f.styles.Muted.Render("Title"),
		f.title.View(),
		f.styles.Muted.Render("Participants"),
		f.participants.View(),
		f.styles.Muted.Render("Tags"),
		f.tags.View(),
		"",
		f.styles.Muted.Render("enter save · esc cancel · tab next field"),
	)
	return f.styles.Pane.Render(body)
}

// splitList parses a comma separated input into trimmed, non-empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
