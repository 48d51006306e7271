package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Recognizer is the injected speech-to-text capability. The engine never
// probes platform state directly; it queries the capability object.
type Recognizer interface {
	// Available reports whether speech capture can be attempted at all.
	Available() bool

	// Recognize captures one utterance and yields its transcript.
	Recognize(ctx context.Context) (string, error)
}

// UnavailableRecognizer is the capability variant for platforms without
// speech recognition. The missing capability is surfaced once; every
// attempt aborts without crashing.
type UnavailableRecognizer struct {
	notice sync.Once
}

// Available always reports false.
func (r *UnavailableRecognizer) Available() bool { return false }

// Recognize logs a one-time notice and reports the capability as missing.
func (r *UnavailableRecognizer) Recognize(context.Context) (string, error) {
	r.notice.Do(func() {
		slog.Warn("speech recognition not supported on this platform")
	})
	return "", ErrRecognizerUnavailable
}

// ExecRecognizer wraps an external speech-to-text command. The command is
// expected to capture one utterance and print the transcript to stdout.
type ExecRecognizer struct {
	Command []string
}

// Available reports whether a recognizer command is configured.
func (r *ExecRecognizer) Available() bool { return len(r.Command) > 0 }

// Recognize runs the configured command and returns its trimmed output.
func (r *ExecRecognizer) Recognize(ctx context.Context) (string, error) {
	if !r.Available() {
		return "", ErrRecognizerUnavailable
	}

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("run recognizer command: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// NewRecognizer builds the capability variant matching the configured
// command: ExecRecognizer when one is set, UnavailableRecognizer otherwise.
func NewRecognizer(command []string) Recognizer {
	if len(command) == 0 {
		return &UnavailableRecognizer{}
	}
	return &ExecRecognizer{Command: command}
}
