// Package tui implements the terminal user interface for Protokoll using the
// Elm architecture: a single [App] model updated by messages from key
// presses, orchestrator events, and timer ticks.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/protokoll-app/protokoll/internal/note"
	"github.com/protokoll-app/protokoll/internal/record"
	"github.com/protokoll-app/protokoll/internal/state"
	"github.com/protokoll-app/protokoll/internal/summary"
)

// meterWidth is the character width of the audio level bar.
const meterWidth = 24

// eventMsg wraps an orchestrator event for the update loop.
type eventMsg record.Event

// tickMsg drives the elapsed-time display while recording.
type tickMsg time.Time

// summaryMsg carries the outcome of an asynchronous summary request.
type summaryMsg struct {
	summary string
	err     error
}

// App is the root TUI model. It implements tea.Model.
type App struct {
	ctx context.Context

	orch       *record.Orchestrator
	store      *note.Store
	appState   *state.App
	summarizer *summary.Service

	styles *Styles
	keys   *KeyMap
	help   help.Model

	transcript viewport.Model
	lines      []string
	form       *meetingForm

	notice    string
	noticeSev record.Severity
	level     float64

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp wires the TUI to the recording pipeline. summarizer may be nil when
// no LLM provider is configured.
func NewApp(ctx context.Context, orch *record.Orchestrator, store *note.Store, appState *state.App, summarizer *summary.Service) *App {
	return &App{
		ctx:        ctx,
		orch:       orch,
		store:      store,
		appState:   appState,
		summarizer: summarizer,
		styles:     DefaultStyles(),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		transcript: viewport.New(80, 16),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.listenEvents(), a.tick())
}

// listenEvents waits for the next orchestrator event. Re-issued after every
// received event so the subscription stays live.
func (a *App) listenEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.ctx.Done():
			return tea.Quit()
		case ev := <-a.orch.Events():
			return eventMsg(ev)
		}
	}
}

// tick emits a tickMsg once per second to refresh the elapsed timer.
func (a *App) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// summarize requests a summary of the current meeting off the update loop.
func (a *App) summarize() tea.Cmd {
	return func() tea.Msg {
		text, err := a.summarizer.GenerateCurrent(a.ctx)
		return summaryMsg{summary: text, err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.transcript.Width = msg.Width - 4
		a.transcript.Height = max(msg.Height-9, 4)
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case eventMsg:
		a.handleEvent(record.Event(msg))
		return a, a.listenEvents()

	case tickMsg:
		return a, a.tick()

	case summaryMsg:
		if msg.err != nil {
			a.setNotice(record.SeverityError, "Summary failed: "+msg.err.Error())
		} else {
			a.setNotice(record.SeverityInfo, "Summary generated and saved")
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.transcript, cmd = a.transcript.Update(msg)
	return a, cmd
}

// handleKey dispatches key presses, routing to the form when it is open.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.form != nil {
		if msg.String() == "esc" {
			a.form = nil
			return a, nil
		}
		result, cmd := a.form.Update(msg)
		if result != nil {
			a.submitForm(result)
			a.form = nil
		}
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		if a.orch.State() != record.Stopped {
			if err := a.orch.Stop(a.ctx); err != nil {
				a.setNotice(record.SeverityError, err.Error())
			}
		}
		return a, tea.Quit

	case key.Matches(msg, a.keys.NewMeeting):
		if a.orch.State() != record.Stopped {
			a.setNotice(record.SeverityWarning, "Stop the recording before creating a new meeting")
			return a, nil
		}
		a.form = newMeetingForm(a.styles)
		return a, nil

	case key.Matches(msg, a.keys.EditMeeting):
		current := a.store.Current()
		if current == nil {
			a.setNotice(record.SeverityWarning, "No meeting to edit")
			return a, nil
		}
		a.form = newMeetingForm(a.styles)
		a.form.setValues(current.Title, current.Participants, current.Tags)
		return a, nil

	case key.Matches(msg, a.keys.Toggle):
		return a, a.toggleRecording()

	case key.Matches(msg, a.keys.PauseResume):
		return a, a.pauseResume()

	case key.Matches(msg, a.keys.Summarize):
		return a, a.requestSummary()

	case key.Matches(msg, a.keys.Language):
		lang, ok := a.appState.ToggleLanguage()
		if !ok {
			a.setNotice(record.SeverityWarning, "Language cannot be changed right now")
		} else {
			a.setNotice(record.SeverityInfo, "Transcription language set to "+string(lang))
		}
		return a, nil

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	}

	var cmd tea.Cmd
	a.transcript, cmd = a.transcript.Update(msg)
	return a, cmd
}

// toggleRecording starts a recording when stopped, stops it otherwise.
func (a *App) toggleRecording() tea.Cmd {
	switch a.orch.State() {
	case record.Stopped:
		if err := a.orch.Start(a.ctx); err != nil {
			return nil // already surfaced as a notice event
		}
	default:
		if err := a.orch.Stop(a.ctx); err != nil {
			a.setNotice(record.SeverityError, err.Error())
		}
	}
	return nil
}

// pauseResume suspends or resumes the live recording.
func (a *App) pauseResume() tea.Cmd {
	switch a.orch.State() {
	case record.Recording:
		if err := a.orch.Pause(a.ctx); err != nil {
			a.setNotice(record.SeverityError, err.Error())
		}
	case record.Paused:
		if err := a.orch.Resume(a.ctx); err != nil {
			a.setNotice(record.SeverityError, err.Error())
		}
	default:
		a.setNotice(record.SeverityWarning, "No recording to pause")
	}
	return nil
}

// requestSummary kicks off summary generation when the preconditions hold.
func (a *App) requestSummary() tea.Cmd {
	if a.summarizer == nil {
		a.setNotice(record.SeverityWarning, "No LLM provider configured")
		return nil
	}
	if a.orch.State() != record.Stopped {
		a.setNotice(record.SeverityWarning, "Stop the recording before summarizing")
		return nil
	}
	if a.store.Current() == nil {
		a.setNotice(record.SeverityWarning, "No meeting to summarize")
		return nil
	}
	a.setNotice(record.SeverityInfo, "Generating summary…")
	return a.summarize()
}

// submitForm creates or updates the meeting from the form values.
func (a *App) submitForm(result *formResult) {
	if a.form.editing {
		a.store.UpdateCurrent(result.Title, result.Participants, result.Tags)
		a.setNotice(record.SeverityInfo, "Meeting updated")
		return
	}
	n := a.store.Create(result.Title, result.Participants, result.Tags)
	a.lines = nil
	a.transcript.SetContent("")
	a.setNotice(record.SeverityInfo, "Meeting created: "+n.Title)
}

// handleEvent folds an orchestrator event into the model.
func (a *App) handleEvent(ev record.Event) {
	switch ev.Kind {
	case record.EventTranscript:
		stamp := time.Now().Format("15:04:05")
		a.lines = append(a.lines, a.styles.Muted.Render("["+stamp+"] ")+ev.Text)
		a.transcript.SetContent(strings.Join(a.lines, "\n"))
		a.transcript.GotoBottom()
	case record.EventNotice:
		a.setNotice(ev.Severity, ev.Text)
	case record.EventLevel:
		a.level = ev.Level
	case record.EventStateChanged:
		// State is re-read from the orchestrator on render.
	}
}

func (a *App) setNotice(sev record.Severity, msg string) {
	a.notice = msg
	a.noticeSev = sev
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading…"
	}
	if a.form != nil {
		return a.form.View()
	}

	sections := []string{
		a.headerView(),
		a.styles.Pane.Render(a.transcript.View()),
		a.meterView(),
		a.noticeView(),
		a.help.View(a.keys),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// headerView renders the meeting title, state badge, timer, and language.
func (a *App) headerView() string {
	title := "No meeting — press n to create one"
	if current := a.store.Current(); current != nil {
		title = current.Title
	}

	var badge string
	switch a.orch.State() {
	case record.Recording:
		badge = a.styles.Recording.Render("● REC " + a.elapsed())
	case record.Paused:
		badge = a.styles.Paused.Render("⏸ PAUSED " + a.elapsed())
	default:
		badge = a.styles.Stopped.Render("■ stopped")
	}

	lang := a.styles.Muted.Render(string(a.appState.Language()))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		a.styles.Title.Render(title), "  ", badge, "  ", lang,
	)
}

// elapsed formats the running meeting duration as H:MM:SS.
func (a *App) elapsed() string {
	current := a.store.Current()
	if current == nil {
		return "0:00:00"
	}
	d := time.Since(current.StartTime)
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// meterView renders the audio input level as a bar.
func (a *App) meterView() string {
	filled := int(a.level * meterWidth)
	if filled > meterWidth {
		filled = meterWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
	return a.styles.Muted.Render("mic ") + a.styles.Meter.Render(bar)
}

// noticeView renders the last notification, styled by severity.
func (a *App) noticeView() string {
	if a.notice == "" {
		return ""
	}
	switch a.noticeSev {
	case record.SeverityError:
		return a.styles.Error.Render(a.notice)
	case record.SeverityWarning:
		return a.styles.Warning.Render(a.notice)
	default:
		return a.styles.Notice.Render(a.notice)
	}
}

// Run starts the TUI program and blocks until it exits.
func Run(ctx context.Context, app *App) error {
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: run program: %w", err)
	}
	return nil
}
