// Package config provides the configuration schema, loader, and provider
// registry for the Protokoll meeting assistant.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Protokoll.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Paths         PathsConfig         `yaml:"paths"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Meeting       MeetingConfig       `yaml:"meeting"`
	Summary       SummaryConfig       `yaml:"summary"`

	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr optionally enables a Prometheus /metrics endpoint on the
	// given TCP address (e.g., "localhost:9090"). Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

// PathsConfig holds the directories the application writes into. Both are
// created on startup when missing.
type PathsConfig struct {
	// Logs is the directory for application log files.
	Logs string `yaml:"logs"`

	// Meetings is the directory where meeting notes (JSON and Markdown)
	// are stored.
	Meetings string `yaml:"meetings"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	// STT selects the speech recognition engine (e.g., "deepgram").
	STT ProviderEntry `yaml:"stt"`

	// LLM selects the summarization backend (e.g., "openai", "anthropic").
	LLM ProviderEntry `yaml:"llm"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "deepgram").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	// Environment variables take precedence; see [ApplyEnv].
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o", "nova-2").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// TranscriptionConfig holds speech recognition settings.
type TranscriptionConfig struct {
	// Language is the initial recognition locale. Default: "en-US".
	// The language can be toggled at runtime between "en-US" and "de-DE".
	Language string `yaml:"language"`

	// SampleRate is the microphone capture rate in Hz. Default: 16000.
	SampleRate int `yaml:"sample_rate"`

	// Protocol optionally names a text file that receives every recognized
	// utterance live, timestamped, as a plain-text protocol.
	Protocol string `yaml:"protocol"`
}

// MeetingConfig holds defaults applied to newly created meeting notes.
type MeetingConfig struct {
	// DefaultParticipant is added to every meeting's participant list when
	// not already present (typically the user's own name).
	DefaultParticipant string `yaml:"default_participant"`
}

// SummaryConfig holds LLM summarization settings.
type SummaryConfig struct {
	// SystemPrompt overrides the built-in prompt template. The placeholders
	// {title}, {date}, {duration} and {participants} are substituted before
	// the request is sent.
	SystemPrompt string `yaml:"system_prompt"`

	// Temperature controls output randomness in [0.0, 2.0]. Default: 0.7.
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the completion length. Default: 1000.
	MaxTokens int `yaml:"max_tokens"`
}
