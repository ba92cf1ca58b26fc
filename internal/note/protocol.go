package note

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ProtocolWriter appends timestamped transcript entries to a plain-text
// protocol file. It is used when the user requests a live protocol output
// alongside the JSON note.
type ProtocolWriter struct {
	path string
	f    *os.File
}

// NewProtocolWriter creates a writer for the given output path. The file is
// not created until Start is called.
func NewProtocolWriter(path string) *ProtocolWriter {
	return &ProtocolWriter{path: path}
}

// Start opens the protocol file and writes the session header.
func (w *ProtocolWriter) Start() error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("protocol: create %s: %w", w.path, err)
	}
	w.f = f

	header := fmt.Sprintf("Protocol - %s\n%s\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		strings.Repeat("=", 50))
	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("protocol: write header: %w", err)
	}
	return nil
}

// WriteEntry appends one timestamped entry. A no-op before Start or after
// Close.
func (w *ProtocolWriter) WriteEntry(text string) error {
	if w.f == nil {
		return nil
	}
	entry := fmt.Sprintf("[%s] %s\n", time.Now().Format("15:04:05"), text)
	if _, err := w.f.WriteString(entry); err != nil {
		return fmt.Errorf("protocol: write entry: %w", err)
	}
	return w.f.Sync()
}

// Close writes the session footer and closes the file. Safe to call twice.
func (w *ProtocolWriter) Close() error {
	if w.f == nil {
		return nil
	}
	footer := fmt.Sprintf("\nProtocol ended - %s", time.Now().Format("2006-01-02 15:04:05"))
	_, werr := w.f.WriteString(footer)
	cerr := w.f.Close()
	w.f = nil
	if werr != nil {
		return fmt.Errorf("protocol: write footer: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("protocol: close: %w", cerr)
	}
	return nil
}
