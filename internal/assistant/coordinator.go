package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moviops/movi-console/internal/bus"
	"github.com/moviops/movi-console/internal/domain"
	"github.com/moviops/movi-console/internal/store"
)

const (
	defaultHistoryKey = "movi_chat_history"
	defaultEventBuf   = 64
	intentBuffer      = 16
	speakTimeout      = 30 * time.Second
)

// Event describes one appended transcript turn, delivered to stream
// consumers in append order.
type Event struct {
	Turn domain.Message `json:"turn"`
}

// Config holds coordinator configuration.
type Config struct {
	HistoryKey       string
	DefaultContext   string
	SynthesisEnabled bool
	EventBuffer      int
}

// Coordinator owns the single-flight request lifecycle for one assistant
// instance: submit, await, append both turns, update session and
// confirmation state, and trigger speech-out.
//
// At most one request is in flight at a time. A submission arriving while
// one is outstanding is dropped, not queued, so a burst of inputs always
// produces a well-ordered, non-interleaved transcript.
type Coordinator struct {
	backend    Backend
	repo       store.Repository
	recognizer Recognizer
	logger     *slog.Logger

	session *SessionHolder
	confirm *ConfirmationState

	historyKey     string
	defaultContext string
	speakEnabled   bool

	inFlight atomic.Bool
	loading  atomic.Bool

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	subMu sync.Mutex
	sub   *bus.Subscription
}

// New creates a coordinator over the given backend, transcript repository
// and speech capability.
func New(backend Backend, repo store.Repository, recognizer Recognizer, cfg Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HistoryKey == "" {
		cfg.HistoryKey = defaultHistoryKey
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuf
	}
	if recognizer == nil {
		recognizer = &UnavailableRecognizer{}
	}

	return &Coordinator{
		backend:        backend,
		repo:           repo,
		recognizer:     recognizer,
		logger:         logger,
		session:        &SessionHolder{},
		confirm:        &ConfirmationState{},
		historyKey:     cfg.HistoryKey,
		defaultContext: cfg.DefaultContext,
		speakEnabled:   cfg.SynthesisEnabled,
		events:         make(chan Event, cfg.EventBuffer),
		done:           make(chan struct{}),
	}
}

// Submit runs one full request cycle to completion. It returns
// ErrEmptySubmission for inputs with neither text nor image and ErrBusy
// when a request is already outstanding; both are dropped without
// touching the transcript. Transport failures are handled locally by
// appending a visible error turn and are not returned to the caller.
func (c *Coordinator) Submit(ctx context.Context, sub Submission) error {
	if sub.Context == "" {
		sub.Context = c.defaultContext
	}

	req, display, err := sub.normalize(c.session.Current())
	if err != nil {
		return err
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Debug("submission dropped, request already in flight", "source", string(sub.Source))
		return ErrBusy
	}
	defer c.inFlight.Store(false)

	// Optimistic user turn, recorded before the network call resolves.
	c.appendTurn(ctx, domain.NewUserMessage(display))
	c.confirm.Set(false)
	c.loading.Store(true)
	defer c.loading.Store(false)

	resp, err := c.backend.Chat(ctx, req)
	if err != nil {
		c.logger.Warn("assistant request failed", "source", string(sub.Source), "error", err)
		c.appendTurn(ctx, domain.NewErrorMessage(transportErrorText))
		return nil
	}

	c.session.Adopt(resp.SessionID)

	answer := resp.Response
	if answer == "" {
		answer = fallbackAnswer
	}
	c.appendTurn(ctx, domain.NewAssistantMessage(answer))
	c.confirm.Set(resp.AwaitingConfirmation)
	c.speak(answer)
	return nil
}

// Listen captures one spoken utterance and forwards the transcript through
// the same submission entry point as typed text. It never mutates shared
// text-box state from the recognition path.
func (c *Coordinator) Listen(ctx context.Context, viewContext string) error {
	transcript, err := c.recognizer.Recognize(ctx)
	if err != nil {
		if errors.Is(err, ErrRecognizerUnavailable) {
			return err
		}
		return fmt.Errorf("speech recognition: %w", err)
	}
	return c.Submit(ctx, Submission{Text: transcript, Context: viewContext, Source: SourceVoice})
}

// Attach subscribes the coordinator to the intent bus. A coordinator holds
// at most one live subscription: attaching again first cancels the
// previous one, so remounts never double-subscribe.
func (c *Coordinator) Attach(b *bus.Bus) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.sub != nil {
		c.sub.Cancel()
	}
	sub := b.Subscribe(intentBuffer)
	c.sub = sub
	go c.intentLoop(sub)
}

// Detach cancels the live intent bus subscription, if any.
func (c *Coordinator) Detach() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.sub != nil {
		c.sub.Cancel()
		c.sub = nil
	}
}

func (c *Coordinator) intentLoop(sub *bus.Subscription) {
	for {
		select {
		case <-c.done:
			return
		case in, ok := <-sub.C:
			if !ok {
				return
			}
			err := c.Submit(context.Background(), Submission{Text: in.Message, Source: SourceIntent})
			if err != nil && !errors.Is(err, ErrEmptySubmission) {
				c.logger.Debug("bus intent dropped", "error", err)
			}
		}
	}
}

// History returns the ordered transcript.
func (c *Coordinator) History(ctx context.Context) ([]domain.Message, error) {
	return c.repo.LoadTranscript(ctx, c.historyKey)
}

// ClearHistory erases the persisted transcript.
func (c *Coordinator) ClearHistory(ctx context.Context) error {
	return c.repo.ClearTranscript(ctx, c.historyKey)
}

// Loading reports whether a request cycle is currently running.
func (c *Coordinator) Loading() bool {
	return c.loading.Load()
}

// AwaitingConfirmation reports whether the last reply expects a yes/no.
func (c *Coordinator) AwaitingConfirmation() bool {
	return c.confirm.Awaiting()
}

// SessionID returns the current conversation token.
func (c *Coordinator) SessionID() string {
	return c.session.Current()
}

// Events returns the stream of appended transcript turns. The channel is
// never closed; consumers select against their own shutdown signal.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Close detaches the bus subscription and stops event and speech
// delivery. Callbacks resolving after Close become no-ops.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.Detach()
		close(c.done)
	})
}

func (c *Coordinator) appendTurn(ctx context.Context, msg domain.Message) {
	if err := c.repo.AppendMessage(ctx, c.historyKey, msg); err != nil {
		c.logger.Warn("failed to persist transcript turn", "role", string(msg.Role), "error", err)
	}
	c.emit(Event{Turn: msg})
}

func (c *Coordinator) emit(ev Event) {
	select {
	case <-c.done:
	case c.events <- ev:
	default:
		c.logger.Warn("transcript event dropped, stream consumer too slow")
	}
}

// speak fires the text-to-speech call for an assistant turn. Failure is
// logged and never surfaced; the call is never retried.
func (c *Coordinator) speak(text string) {
	if !c.speakEnabled || text == "" {
		return
	}
	go func() {
		select {
		case <-c.done:
			return
		default:
		}
		ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
		defer cancel()
		if err := c.backend.Speak(ctx, text); err != nil {
			c.logger.Debug("text-to-speech failed", "error", err)
		}
	}()
}
