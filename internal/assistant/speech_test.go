package assistant

import (
	"context"
	"errors"
	"testing"
)

func TestUnavailableRecognizer(t *testing.T) {
	t.Parallel()

	r := &UnavailableRecognizer{}
	if r.Available() {
		t.Error("unavailable variant must report false")
	}
	if _, err := r.Recognize(context.Background()); !errors.Is(err, ErrRecognizerUnavailable) {
		t.Fatalf("expected ErrRecognizerUnavailable, got %v", err)
	}
	// Second attempt must behave identically, notice is one-time only.
	if _, err := r.Recognize(context.Background()); !errors.Is(err, ErrRecognizerUnavailable) {
		t.Fatalf("expected ErrRecognizerUnavailable on repeat, got %v", err)
	}
}

func TestExecRecognizerCapturesTranscript(t *testing.T) {
	t.Parallel()

	r := &ExecRecognizer{Command: []string{"echo", "check fleet status"}}
	if !r.Available() {
		t.Fatal("configured recognizer must report available")
	}
	got, err := r.Recognize(context.Background())
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if got != "check fleet status" {
		t.Errorf("unexpected transcript: %q", got)
	}
}

func TestExecRecognizerCommandFailure(t *testing.T) {
	t.Parallel()

	r := &ExecRecognizer{Command: []string{"false"}}
	if _, err := r.Recognize(context.Background()); err == nil {
		t.Fatal("expected error from failing recognizer command")
	}
}

func TestNewRecognizerVariants(t *testing.T) {
	t.Parallel()

	if _, ok := NewRecognizer(nil).(*UnavailableRecognizer); !ok {
		t.Error("empty command must yield the unavailable variant")
	}
	if _, ok := NewRecognizer([]string{"echo"}).(*ExecRecognizer); !ok {
		t.Error("configured command must yield the exec variant")
	}
}
