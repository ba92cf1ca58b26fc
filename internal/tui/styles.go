package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour palette for the TUI.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Recording marks the live-recording indicator.
	Recording lipgloss.Color

	// Paused marks the paused indicator.
	Paused lipgloss.Color

	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Recording:  lipgloss.Color("#F38BA8"), // Red
		Paused:     lipgloss.Color("#F9E2AF"), // Yellow
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for the meeting title header.
	Title lipgloss.Style

	// Normal style for regular text.
	Normal lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Recording style for the live indicator and timer.
	Recording lipgloss.Style

	// Paused style for the paused indicator.
	Paused lipgloss.Style

	// Stopped style for the idle indicator.
	Stopped lipgloss.Style

	// Notice style for informational messages.
	Notice lipgloss.Style

	// Warning style for refused actions.
	Warning lipgloss.Style

	// Error style for failures.
	Error lipgloss.Style

	// Pane style for bordered content areas.
	Pane lipgloss.Style

	// Meter style for the audio level bar.
	Meter lipgloss.Style
}

// DefaultStyles returns styles built from [DefaultTheme].
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// NewStyles builds the style set from a theme.
func NewStyles(t *Theme) *Styles {
	return &Styles{
		theme:     t,
		Title:     lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Normal:    lipgloss.NewStyle().Foreground(t.Foreground),
		Muted:     lipgloss.NewStyle().Foreground(t.Muted),
		Recording: lipgloss.NewStyle().Bold(true).Foreground(t.Recording),
		Paused:    lipgloss.NewStyle().Bold(true).Foreground(t.Paused),
		Stopped:   lipgloss.NewStyle().Foreground(t.Muted),
		Notice:    lipgloss.NewStyle().Foreground(t.Success),
		Warning:   lipgloss.NewStyle().Foreground(t.Paused),
		Error:     lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Meter: lipgloss.NewStyle().Foreground(t.Success),
	}
}
