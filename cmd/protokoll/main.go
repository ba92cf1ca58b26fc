// Command protokoll is the terminal meeting assistant: it records microphone
// audio, streams it to a speech recognition engine, collects the transcript
// into a persisted meeting note, and generates LLM summaries on demand.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/protokoll-app/protokoll/internal/capture"
	"github.com/protokoll-app/protokoll/internal/config"
	"github.com/protokoll-app/protokoll/internal/note"
	"github.com/protokoll-app/protokoll/internal/observe"
	"github.com/protokoll-app/protokoll/internal/record"
	"github.com/protokoll-app/protokoll/internal/state"
	"github.com/protokoll-app/protokoll/internal/summary"
	"github.com/protokoll-app/protokoll/internal/transcribe"
	"github.com/protokoll-app/protokoll/internal/tui"
	"github.com/protokoll-app/protokoll/pkg/provider/llm"
	"github.com/protokoll-app/protokoll/pkg/provider/llm/anyllm"
	llmopenai "github.com/protokoll-app/protokoll/pkg/provider/llm/openai"
	"github.com/protokoll-app/protokoll/pkg/provider/stt"
	"github.com/protokoll-app/protokoll/pkg/provider/stt/deepgram"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	protocolPath := flag.String("output", "", "write a live plain-text protocol to this file (overrides config)")
	noMic := flag.Bool("no-mic", false, "run without a microphone (silent audio source)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "protokoll: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "protokoll: %v\n", err)
		}
		return 1
	}
	if err := config.EnsureDirectories(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "protokoll: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// Logs go to a file: stderr belongs to the TUI.
	logger, logClose := newLogger(cfg)
	defer logClose()
	slog.SetDefault(logger)

	slog.Info("protokoll starting",
		"config", *configPath,
		"meetings_dir", cfg.Paths.Meetings,
		"language", cfg.Transcription.Language,
		"log_level", cfg.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	metricsShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	engine, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		slog.Error("failed to build recognition engine", "err", err)
		return 1
	}

	var llmProvider llm.Provider
	if cfg.Providers.LLM.Name != "" {
		llmProvider, err = reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			slog.Error("failed to build LLM provider", "err", err)
			return 1
		}
	}

	// ── Core wiring ───────────────────────────────────────────────────────────
	appState := state.NewWithLanguage(state.Language(cfg.Transcription.Language))

	var storeOpts []note.Option
	if cfg.Meeting.DefaultParticipant != "" {
		storeOpts = append(storeOpts, note.WithDefaultParticipant(cfg.Meeting.DefaultParticipant))
	}
	store := note.NewStore(cfg.Paths.Meetings, storeOpts...)

	// The level callback is bound after the orchestrator exists.
	var onLevel capture.LevelFunc
	captureCfg := capture.Config{
		SampleRate: cfg.Transcription.SampleRate,
		Level: func(chunk []byte) {
			if onLevel != nil {
				onLevel(chunk)
			}
		},
	}
	var source capture.Source
	if *noMic {
		source = capture.NewSilent(captureCfg)
	} else {
		source = capture.NewLive(captureCfg)
	}

	session := transcribe.NewSession(engine)

	recordOpts := []record.Option{}
	if path := protocolFile(*protocolPath, cfg); path != "" {
		recordOpts = append(recordOpts, record.WithProtocol(note.NewProtocolWriter(path)))
	}
	orch := record.NewOrchestrator(session, source, store, appState, recordOpts...)
	onLevel = orch.NotifyLevel

	var summarizer *summary.Service
	if llmProvider != nil {
		summarizer = summary.NewService(llmProvider, store, appState,
			summary.WithSystemPrompt(cfg.Summary.SystemPrompt),
			summary.WithTemperature(cfg.Summary.Temperature),
			summary.WithMaxTokens(cfg.Summary.MaxTokens),
		)
	}

	// Make sure a Ctrl+C outside the TUI still finalizes the note.
	defer func() {
		if err := orch.Stop(context.Background()); err != nil {
			slog.Error("final stop", "err", err)
		}
	}()

	// ── Run ───────────────────────────────────────────────────────────────────
	app := tui.NewApp(ctx, orch, store, appState, summarizer)
	if err := tui.Run(ctx, app); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// version is stamped at build time via -ldflags.
var version = "dev"

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the
// appropriate provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Engine, error) {
		opts := []deepgram.Option{
			deepgram.WithLanguage(cfg.Transcription.Language),
			deepgram.WithSampleRate(cfg.Transcription.SampleRate),
		}
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai goes through the official SDK; the other providers share the
	// any-llm backend.

	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []llmopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(entry.BaseURL))
		}
		return llmopenai.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{"anthropic", "gemini", "deepseek", "mistral", "groq"} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// protocolFile resolves the live protocol output path: the -output flag wins
// over the config value. Empty means no protocol file.
func protocolFile(flagValue string, cfg *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Transcription.Protocol
}

// newLogger builds a text slog.Logger writing to a file under the configured
// log directory. Falls back to stderr if the file cannot be opened. The
// returned close function flushes the file on exit.
func newLogger(cfg *config.Config) (*slog.Logger, func()) {
	var lvl slog.Level
	switch cfg.LogLevel {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	path := filepath.Join(cfg.Paths.Logs, "protokoll.log")
	if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		w = f
		closeFn = func() { _ = f.Close() }
	} else {
		fmt.Fprintf(os.Stderr, "protokoll: cannot open log file %q: %v — logging to stderr\n", path, err)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), closeFn
}

// serveMetrics exposes the Prometheus scrape endpoint.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics endpoint failed", "err", err)
	}
}
