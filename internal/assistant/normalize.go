package assistant

import (
	"strings"
)

// normalize validates a raw submission and produces the canonical wire
// request plus the display text recorded to the transcript.
//
// The wire message is always the literal (trimmed) caption; the display
// text for an image-bearing submission is the caption annotated with the
// attachment marker, never the raw payload. A submission with neither
// text nor image is rejected with ErrEmptySubmission.
func (s Submission) normalize(sessionID string) (OutboundRequest, string, error) {
	text := strings.TrimSpace(s.Text)
	if text == "" && s.Image == "" {
		return OutboundRequest{}, "", ErrEmptySubmission
	}

	display := text
	if s.Image != "" {
		if display == "" {
			display = imageOnlyText
		}
		display += attachmentMarker
	}

	req := OutboundRequest{
		Message:   text,
		Context:   s.Context,
		SessionID: sessionID,
		Image:     s.Image,
	}
	return req, display, nil
}
