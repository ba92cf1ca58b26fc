package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application, stopping a live recording first.
	Quit key.Binding

	// NewMeeting opens the meeting form.
	NewMeeting key.Binding

	// EditMeeting opens the meeting form pre-filled with the current note.
	EditMeeting key.Binding

	// Toggle starts a recording, or stops the live one.
	Toggle key.Binding

	// PauseResume pauses a live recording or resumes a paused one.
	PauseResume key.Binding

	// Summarize requests an LLM summary of the current meeting.
	Summarize key.Binding

	// Language toggles the transcription language.
	Language key.Binding

	// Help toggles the full help view.
	Help key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NewMeeting: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new meeting"),
		),
		EditMeeting: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit meeting"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "start/stop"),
		),
		PauseResume: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause/resume"),
		),
		Summarize: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "summarize"),
		),
		Language: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "language"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp returns the condensed binding list for the footer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NewMeeting, k.Toggle, k.Summarize, k.Quit}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NewMeeting, k.EditMeeting},
		{k.Toggle, k.PauseResume},
		{k.Summarize, k.Language},
		{k.Help, k.Quit},
	}
}
