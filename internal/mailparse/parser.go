package mailparse

import (
	"bytes"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
)

// Parser decomposes raw message bytes. Part-level problems are logged
// and skipped; only a top-level parse failure is returned to the
// caller.
type Parser struct {
	log *slog.Logger
}

// NewParser creates a Parser.
func NewParser(log *slog.Logger) *Parser {
	return &Parser{log: log}
}

// Parse decomposes raw RFC5322 bytes into a Message. Parsing the same
// bytes twice yields structurally identical results.
func (p *Parser) Parse(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, err
	}

	mediaType, params := parseMediaType(msg.Header.Get("Content-Type"))

	out := &Message{Header: msg.Header}

	if strings.HasPrefix(mediaType, "multipart/") {
		out.Multipart = true
		var text strings.Builder
		p.walkMultipart(body, params["boundary"], out, &text)
		out.BodyText = text.String()
		return out, nil
	}

	decoded, err := decodeTransfer(body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		p.log.Warn("Failed to decode message body",
			slog.String("error", err.Error()),
		)
		out.BodyText = UndecodableBody
		return out, nil
	}
	out.BodyText = decodeText(decoded, params["charset"])
	return out, nil
}

// walkMultipart walks every part depth-first, accumulating body text
// and attachments in encounter order.
func (p *Parser) walkMultipart(body []byte, boundary string, out *Message, text *strings.Builder) {
	if boundary == "" {
		p.log.Warn("Multipart body without boundary, skipping")
		return
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			if err != io.EOF {
				p.log.Warn("Failed to read message part",
					slog.String("error", err.Error()),
				)
			}
			return
		}

		payload, err := io.ReadAll(part)
		if err != nil {
			p.log.Warn("Failed to read part payload",
				slog.String("error", err.Error()),
			)
			continue
		}

		p.handlePart(part.Header, payload, out, text)
	}
}

// handlePart dispatches one part: nested multiparts recurse,
// attachment-disposition parts are captured, text parts accumulate.
func (p *Parser) handlePart(header textproto.MIMEHeader, payload []byte, out *Message, text *strings.Builder) {
	mediaType, params := parseMediaType(header.Get("Content-Type"))

	if strings.HasPrefix(mediaType, "multipart/") {
		p.walkMultipart(payload, params["boundary"], out, text)
		return
	}

	dispType, dispParams, _ := mime.ParseMediaType(header.Get("Content-Disposition"))
	if dispType == "attachment" {
		p.captureAttachment(header, mediaType, params, dispParams, payload, out)
		return
	}

	switch mediaType {
	case "text/plain":
		decoded, err := decodeTransfer(payload, header.Get("Content-Transfer-Encoding"))
		if err != nil {
			p.log.Warn("Failed to decode text part, skipping",
				slog.String("error", err.Error()),
			)
			return
		}
		text.WriteString(decodeText(decoded, params["charset"]))
	case "text/html":
		// HTML is not rendered; leave a marker so the reader knows
		// content was dropped.
		text.WriteString(HTMLOmittedMarker)
	}
}

// captureAttachment records an attachment part. Attachments without a
// filename cannot be re-attached and are skipped.
func (p *Parser) captureAttachment(header textproto.MIMEHeader, mediaType string, typeParams, dispParams map[string]string, payload []byte, out *Message) {
	filename := dispParams["filename"]
	if filename == "" {
		filename = typeParams["name"]
	}
	if filename == "" {
		p.log.Warn("Skipping attachment without filename",
			slog.String("content_type", mediaType),
		)
		return
	}

	decoded, err := decodeTransfer(payload, header.Get("Content-Transfer-Encoding"))
	if err != nil {
		p.log.Warn("Failed to decode attachment, skipping",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return
	}

	out.Attachments = append(out.Attachments, Attachment{
		Filename:    decodeWord(filename),
		ContentType: mediaType,
		Data:        decoded,
	})
}

// parseMediaType parses a Content-Type value, defaulting to text/plain
// when the header is missing or malformed.
func parseMediaType(value string) (string, map[string]string) {
	if value == "" {
		return "text/plain", nil
	}
	mediaType, params, err := mime.ParseMediaType(value)
	if err != nil {
		return "text/plain", nil
	}
	return mediaType, params
}
