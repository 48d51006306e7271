// Package assistant implements the Movi session/interaction engine.
package assistant

import (
	"errors"
)

// OutboundRequest is the wire body for one assistant turn.
type OutboundRequest struct {
	Message   string `json:"message"`
	Context   string `json:"context"`
	SessionID string `json:"sessionId"`
	Image     string `json:"image,omitempty"` // base64 data URI
}

// BackendResponse is the wire body returned by the assistant backend.
type BackendResponse struct {
	Response             string `json:"response"`
	SessionID            string `json:"sessionId,omitempty"`
	AwaitingConfirmation bool   `json:"awaitingConfirmation,omitempty"`
}

// Source identifies which input modality produced a submission.
type Source string

const (
	// SourceTyped is operator text typed into the chat box.
	SourceTyped Source = "typed"
	// SourceVoice is a recognized speech transcript.
	SourceVoice Source = "voice"
	// SourceImage is an image attachment with an implicit caption.
	SourceImage Source = "image"
	// SourceIntent is a command injected by another UI region via the intent bus.
	SourceIntent Source = "intent"
)

// Submission is one raw user input heading into the dispatch pipeline.
// All modalities funnel through the same Submit entry point.
type Submission struct {
	Text    string
	Image   string // base64 data URI, empty when no attachment
	Context string
	Source  Source
}

// DefaultImageCaption is the implicit caption attached to an image
// submission when the caller provides none.
const DefaultImageCaption = "What should I do with this trip?"

const (
	fallbackAnswer     = "I'm not sure how to help with that."
	transportErrorText = "Error communicating with Movi. Please try again."
	imageOnlyText      = "Image shared"
	attachmentMarker   = " 📷"
)

var (
	// ErrEmptySubmission marks a submission with neither text nor image.
	// Callers treat it as a silent no-op, not a failure.
	ErrEmptySubmission = errors.New("empty submission")

	// ErrBusy marks a submission dropped because a request is already in
	// flight. Dropped, never queued.
	ErrBusy = errors.New("request already in flight")

	// ErrRecognizerUnavailable marks a voice capture attempt on a platform
	// without a speech recognition capability.
	ErrRecognizerUnavailable = errors.New("speech recognition unavailable")
)
