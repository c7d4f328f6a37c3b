// Package mailparse decomposes raw RFC5322 messages into headers,
// body text, and attachments for re-composition.
package mailparse

import "net/mail"

// Placeholders emitted into body text when content cannot be carried
// through as plain text.
const (
	// HTMLOmittedMarker replaces HTML parts, which are not rendered.
	HTMLOmittedMarker = "\n[HTML content]\n"
	// UndecodableBody replaces a single-part body that failed to decode.
	UndecodableBody = "[Unable to decode email body]"
)

// Attachment is one attachment-disposition part, with its payload
// already decoded from the transfer encoding.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is the decomposed form of a raw message. It is read-only
// after Parse returns; Attachments and body text preserve the
// encounter order of the original parts.
type Message struct {
	Header      mail.Header
	BodyText    string
	Attachments []Attachment
	Multipart   bool
}

// Subject returns the RFC2047-decoded Subject header.
func (m *Message) Subject() string {
	return decodeWord(m.Header.Get("Subject"))
}
