package llmcall

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/providers"
)

// Recorder writes one transcript file per provider call. It implements
// providers.Observer; write failures are logged and never reach the caller.
type Recorder struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing into dir. A nil recorder records
// nothing.
func NewRecorder(dir string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{dir: dir, logger: logger, now: time.Now}
}

// Observe records in.
func (r *Recorder) Observe(_ context.Context, in providers.Interaction) {
	if r == nil {
		return
	}
	call := FromInteraction(in, r.now().UTC())
	if call == nil {
		return
	}
	if _, err := r.RecordCall(call); err != nil {
		r.logger.Warn("failed to write transcript", "request_id", call.ID, "error", err)
	}
}

// RecordCall writes call and returns the transcript path.
func (r *Recorder) RecordCall(call *Call) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}
	data, err := renderTranscript(call)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, transcriptName(call))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

func transcriptName(call *Call) string {
	return call.Timestamp.UTC().Format("20060102T150405Z") + "-" + call.ID + ".md"
}

func renderTranscript(call *Call) ([]byte, error) {
	header, err := yaml.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript header: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n")
	writeSection(&b, "System", call.System)
	writeSection(&b, "User", call.User)
	writeSection(&b, "Response", call.Response)
	return b.Bytes(), nil
}

func writeSection(b *bytes.Buffer, title, text string) {
	fmt.Fprintf(b, "\n## %s\n\n%s\n", title, text)
}
