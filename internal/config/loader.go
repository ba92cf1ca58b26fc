package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt": {"deepgram"},
	"llm": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq"},
}

// supportedLanguages lists the recognition locales the language toggle
// cycles through.
var supportedLanguages = []string{"en-US", "de-DE"}

// Load reads the YAML configuration file at path, applies environment
// variable overrides, and returns a validated [Config]. It is a convenience
// wrapper around [LoadFromReader], [ApplyEnv], and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment variable
// overrides, fills defaults, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides credentials from environment variables. Environment
// values take precedence over the file so that keys never have to be
// committed alongside the config.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("DEEPGRAM_API_KEY"); v != "" {
		cfg.Providers.STT.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Providers.LLM.Name == "openai" {
		cfg.Providers.LLM.APIKey = v
	}
	if v := os.Getenv("PROTOKOLL_LLM_API_KEY"); v != "" {
		cfg.Providers.LLM.APIKey = v
	}
}

// applyDefaults fills zero values with the documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.Paths.Logs == "" {
		cfg.Paths.Logs = "logs"
	}
	if cfg.Paths.Meetings == "" {
		cfg.Paths.Meetings = "meetings"
	}
	if cfg.Transcription.Language == "" {
		cfg.Transcription.Language = "en-US"
	}
	if cfg.Transcription.SampleRate == 0 {
		cfg.Transcription.SampleRate = 16000
	}
	if cfg.Summary.Temperature == 0 {
		cfg.Summary.Temperature = 0.7
	}
	if cfg.Summary.MaxTokens == 0 {
		cfg.Summary.MaxTokens = 1000
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)

	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required; transcription cannot run without a recognition engine"))
	} else if cfg.Providers.STT.APIKey == "" {
		errs = append(errs, errors.New("providers.stt.api_key is empty and no DEEPGRAM_API_KEY environment variable is set"))
	}

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; summary generation will not be available")
	} else if cfg.Providers.LLM.APIKey == "" && cfg.Providers.LLM.Name != "ollama" {
		errs = append(errs, fmt.Errorf("providers.llm.api_key is empty for provider %q and no matching environment variable is set", cfg.Providers.LLM.Name))
	}

	if !slices.Contains(supportedLanguages, cfg.Transcription.Language) {
		errs = append(errs, fmt.Errorf("transcription.language %q is invalid; valid values: %v", cfg.Transcription.Language, supportedLanguages))
	}
	if cfg.Transcription.SampleRate < 8000 {
		errs = append(errs, fmt.Errorf("transcription.sample_rate %d is too low; 16000 is the recommended value", cfg.Transcription.SampleRate))
	}

	if cfg.Summary.Temperature < 0 || cfg.Summary.Temperature > 2 {
		errs = append(errs, fmt.Errorf("summary.temperature %.2f is out of range [0.0, 2.0]", cfg.Summary.Temperature))
	}
	if cfg.Summary.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("summary.max_tokens %d must not be negative", cfg.Summary.MaxTokens))
	}

	return errors.Join(errs...)
}

// EnsureDirectories creates the configured log and meeting directories when
// they do not exist yet.
func EnsureDirectories(cfg *Config) error {
	for _, dir := range []string{cfg.Paths.Logs, cfg.Paths.Meetings} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory %q: %w", dir, err)
		}
	}
	return nil
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
