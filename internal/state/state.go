// Package state holds the small piece of application state shared between
// the UI actions and the background services: the active transcription
// language and the in-flight flags that gate summarization and language
// switching.
package state

import (
	"log/slog"
	"sync"
)

// Language is a supported transcription locale.
type Language string

const (
	// LanguageEnglish is US English.
	LanguageEnglish Language = "en-US"

	// LanguageGerman is German.
	LanguageGerman Language = "de-DE"
)

// App tracks cross-cutting flags. All methods are safe for concurrent use.
type App struct {
	mu          sync.Mutex
	language    Language
	summarizing bool
	processing  bool
}

// New creates an App starting in English.
func New() *App {
	return &App{language: LanguageEnglish}
}

// NewWithLanguage creates an App starting in the given language. Unknown
// values fall back to English.
func NewWithLanguage(l Language) *App {
	if l != LanguageGerman {
		l = LanguageEnglish
	}
	return &App{language: l}
}

// Language returns the active transcription language.
func (a *App) Language() Language {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.language
}

// ToggleLanguage switches between English and German. The switch is refused
// (returning the current language and false) while recognition results are
// being processed or a summary is in flight, because the engine connection
// is rebuilt on language change.
func (a *App) ToggleLanguage() (Language, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.processing || a.summarizing {
		return a.language, false
	}

	if a.language == LanguageEnglish {
		a.language = LanguageGerman
	} else {
		a.language = LanguageEnglish
	}
	slog.Info("language switched", "language", a.language)
	return a.language, true
}

// SetProcessing marks whether a recording session is actively processing
// recognition results.
func (a *App) SetProcessing(v bool) {
	a.mu.Lock()
	a.processing = v
	a.mu.Unlock()
}

// Summarizing reports whether a summary request is in flight.
func (a *App) Summarizing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summarizing
}

// BeginSummarize attempts to claim the summarizing slot. Returns false when
// a summary is already in flight.
func (a *App) BeginSummarize() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.summarizing {
		return false
	}
	a.summarizing = true
	return true
}

// EndSummarize releases the summarizing slot. Always safe to call; pair it
// with BeginSummarize in a defer so the flag clears on every path.
func (a *App) EndSummarize() {
	a.mu.Lock()
	a.summarizing = false
	a.mu.Unlock()
}
