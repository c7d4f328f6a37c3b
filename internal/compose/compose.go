// Package compose builds the outbound forwarding message from a
// decomposed original.
package compose

import (
	"fmt"
	"strings"

	"github.com/biancatechnologies/mail-forwarder/internal/mailparse"
)

// subjectPrefix marks forwarded messages.
const subjectPrefix = "Fwd: "

// missingSubject stands in for an absent original Subject.
const missingSubject = "(No Subject)"

// unknownSender stands in for an absent original From header.
const unknownSender = "Unknown"

// Outbound is a fully composed forwarding message, ready to
// serialize. One Outbound is built per resolved recipient.
type Outbound struct {
	From        string
	To          string
	Subject     string
	ReplyTo     string
	BodyText    string
	Attachments []mailparse.Attachment
}

// Forward composes the outbound message for one resolved recipient.
// The sender is always the fixed no-reply address; the original
// sender is preserved in Reply-To so replies reach them. Pure: no
// I/O, no failure modes.
func Forward(msg *mailparse.Message, origRecipient, dest, noReplyAddr string) *Outbound {
	origFrom := msg.Header.Get("From")
	if origFrom == "" {
		origFrom = unknownSender
	}
	origTo := msg.Header.Get("To")
	if origTo == "" {
		origTo = origRecipient
	}
	subject := msg.Subject()
	if subject == "" {
		subject = missingSubject
	}

	var body strings.Builder
	body.WriteString("--- Original Email ---\n")
	fmt.Fprintf(&body, "From: %s\n", origFrom)
	fmt.Fprintf(&body, "To: %s\n", origTo)
	fmt.Fprintf(&body, "Date: %s\n", msg.Header.Get("Date"))
	fmt.Fprintf(&body, "Subject: %s\n", subject)
	body.WriteString("\n")
	body.WriteString(msg.BodyText)

	return &Outbound{
		From:        noReplyAddr,
		To:          dest,
		Subject:     subjectPrefix + subject,
		ReplyTo:     origFrom,
		BodyText:    body.String(),
		Attachments: msg.Attachments,
	}
}
