package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPBackendChat(t *testing.T) {
	t.Parallel()

	var got OutboundRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"response":"3 vehicles available","sessionId":"abc","awaitingConfirmation":true}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, 5*time.Second, nil)
	resp, err := b.Chat(context.Background(), OutboundRequest{
		Message:   "Show me available vehicles",
		Context:   "/bus-dashboard",
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if got.Message != "Show me available vehicles" || got.SessionID != "sess-1" {
		t.Errorf("unexpected wire body: %+v", got)
	}
	if resp.Response != "3 vehicles available" || resp.SessionID != "abc" || !resp.AwaitingConfirmation {
		t.Errorf("unexpected decoded response: %+v", resp)
	}
}

func TestHTTPBackendChatOmitsEmptyImage(t *testing.T) {
	t.Parallel()

	var raw map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if _, err := w.Write([]byte(`{"response":"ok"}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, 5*time.Second, nil)
	if _, err := b.Chat(context.Background(), OutboundRequest{Message: "hi", SessionID: "s"}); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if _, present := raw["image"]; present {
		t.Error("image field must be absent when no attachment is sent")
	}
}

func TestHTTPBackendChatNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, 5*time.Second, nil)
	if _, err := b.Chat(context.Background(), OutboundRequest{Message: "hi"}); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestHTTPBackendSpeak(t *testing.T) {
	t.Parallel()

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, 5*time.Second, nil)
	if err := b.Speak(context.Background(), "All vehicles operational"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if got["text"] != "All vehicles operational" {
		t.Errorf("unexpected speech body: %+v", got)
	}
}

func TestHTTPBackendChatTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	b := NewHTTPBackend(srv.URL, 50*time.Millisecond, nil)
	if _, err := b.Chat(context.Background(), OutboundRequest{Message: "hi"}); err == nil {
		t.Fatal("expected timeout error")
	}
}
