package assistant

import (
	"testing"
)

func TestSessionHolderGeneratesStableToken(t *testing.T) {
	t.Parallel()

	h := &SessionHolder{}
	first := h.Current()
	if first == "" {
		t.Fatal("expected a generated token on first use")
	}
	if h.Current() != first {
		t.Error("token must be cached for the process lifetime")
	}
}

func TestSessionHolderAdoptOverwrites(t *testing.T) {
	t.Parallel()

	h := &SessionHolder{}
	_ = h.Current()

	h.Adopt("server-token")
	if got := h.Current(); got != "server-token" {
		t.Errorf("expected adopted token, got %q", got)
	}

	h.Adopt("newer-token")
	if got := h.Current(); got != "newer-token" {
		t.Errorf("last write must win, got %q", got)
	}
}

func TestSessionHolderIgnoresEmptyAdopt(t *testing.T) {
	t.Parallel()

	h := &SessionHolder{}
	h.Adopt("token")
	h.Adopt("")
	if got := h.Current(); got != "token" {
		t.Errorf("empty adopt must be ignored, got %q", got)
	}
}

func TestSessionHolderTokensAreUnique(t *testing.T) {
	t.Parallel()

	a := (&SessionHolder{}).Current()
	b := (&SessionHolder{}).Current()
	if a == b {
		t.Error("independent holders must not collide")
	}
}
