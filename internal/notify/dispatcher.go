package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/talktotext/talktotext/internal/types"
)

// Sender delivers one plain-text email. The production implementation is
// SendGrid; tests substitute a double.
type Sender interface {
	Send(from, to, subject, body string) error
}

// Dispatcher assembles and sends the two outbound messages: the intake
// validation link and the finished transcript report.
type Dispatcher struct {
	sender  Sender
	from    string
	baseURL string
}

func NewDispatcher(sender Sender, from, baseURL string) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// DeliverReport sends the transcript and minutes to the requester. One
// attempt only; retrying delivery is the orchestrator's decision.
func (d *Dispatcher) DeliverReport(recipient, transcript string, minutes types.MeetingMinutes) error {
	subject := fmt.Sprintf("Transcript - %s", time.Now().Format("2006-01-02"))
	if err := d.sender.Send(d.from, recipient, subject, BuildReportBody(transcript, minutes)); err != nil {
		return &types.DeliveryError{Err: err}
	}
	return nil
}

// DeliverValidationLink mails the one-time link that triggers processing of
// a stored upload.
func (d *Dispatcher) DeliverValidationLink(recipient, token string) error {
	subject := "Confirm your transcription request"
	body := fmt.Sprintf(
		"Your recording was received.\n\n"+
			"Click the link below to start transcription. The link works exactly once.\n\n"+
			"%s/%s/validate\n\n"+
			"If you did not request this, ignore this message and the upload will be discarded.",
		d.baseURL, token)
	if err := d.sender.Send(d.from, recipient, subject, body); err != nil {
		return &types.DeliveryError{Err: err}
	}
	return nil
}

// BuildReportBody renders the five report sections in fixed order, each
// prefixed by its label and separated by a blank line.
func BuildReportBody(transcript string, minutes types.MeetingMinutes) string {
	var b strings.Builder
	b.WriteString("Summary:\n")
	b.WriteString(minutes.AbstractSummary)
	b.WriteString("\n\nKey Points:\n")
	b.WriteString(minutes.KeyPoints)
	b.WriteString("\n\nAction Items:\n")
	b.WriteString(minutes.ActionItems)
	b.WriteString("\n\nSentiment Analysis:\n")
	b.WriteString(minutes.Sentiment)
	b.WriteString("\n\nFull Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}
