package state_test

import (
	"testing"

	"github.com/protokoll-app/protokoll/internal/state"
)

func TestToggleLanguage(t *testing.T) {
	t.Parallel()
	a := state.New()

	if a.Language() != state.LanguageEnglish {
		t.Fatalf("initial language = %v, want en-US", a.Language())
	}

	lang, ok := a.ToggleLanguage()
	if !ok || lang != state.LanguageGerman {
		t.Errorf("first toggle = (%v, %v), want (de-DE, true)", lang, ok)
	}
	lang, ok = a.ToggleLanguage()
	if !ok || lang != state.LanguageEnglish {
		t.Errorf("second toggle = (%v, %v), want (en-US, true)", lang, ok)
	}
}

func TestToggleLanguage_RefusedWhileBusy(t *testing.T) {
	t.Parallel()

	t.Run("processing", func(t *testing.T) {
		t.Parallel()
		a := state.New()
		a.SetProcessing(true)
		if lang, ok := a.ToggleLanguage(); ok || lang != state.LanguageEnglish {
			t.Errorf("toggle while processing = (%v, %v), want refusal", lang, ok)
		}
		a.SetProcessing(false)
		if _, ok := a.ToggleLanguage(); !ok {
			t.Error("toggle should succeed once processing ends")
		}
	})

	t.Run("summarizing", func(t *testing.T) {
		t.Parallel()
		a := state.New()
		if !a.BeginSummarize() {
			t.Fatal("claim should succeed")
		}
		if _, ok := a.ToggleLanguage(); ok {
			t.Error("toggle while summarizing should be refused")
		}
		a.EndSummarize()
		if _, ok := a.ToggleLanguage(); !ok {
			t.Error("toggle should succeed after summarize ends")
		}
	})
}

func TestSummarizeClaim(t *testing.T) {
	t.Parallel()
	a := state.New()

	if a.Summarizing() {
		t.Error("fresh state should not be summarizing")
	}
	if !a.BeginSummarize() {
		t.Fatal("first claim should succeed")
	}
	if a.BeginSummarize() {
		t.Error("second claim should be refused while in flight")
	}
	a.EndSummarize()
	if !a.BeginSummarize() {
		t.Error("claim should succeed again after release")
	}
	a.EndSummarize()

	// EndSummarize is safe when nothing is in flight.
	a.EndSummarize()
}

func TestNewWithLanguage(t *testing.T) {
	t.Parallel()

	if got := state.NewWithLanguage(state.LanguageGerman).Language(); got != state.LanguageGerman {
		t.Errorf("language = %v, want de-DE", got)
	}
	if got := state.NewWithLanguage("fr-FR").Language(); got != state.LanguageEnglish {
		t.Errorf("unknown language should fall back to en-US, got %v", got)
	}
}
