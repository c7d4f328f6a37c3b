// Package forwarder orchestrates the forwarding pipeline: normalize
// trigger records, retrieve and decompose each message, resolve
// recipients, compose, and dispatch. Failures are isolated at the
// smallest affected unit; only an uninterpretable payload fails the
// invocation.
package forwarder

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/biancatechnologies/mail-forwarder/internal/compose"
	"github.com/biancatechnologies/mail-forwarder/internal/config"
	"github.com/biancatechnologies/mail-forwarder/internal/event"
	"github.com/biancatechnologies/mail-forwarder/internal/mailparse"
	"github.com/biancatechnologies/mail-forwarder/internal/mapping"
)

// addressPattern matches bare email-shaped tokens inside header
// values. Display-name and quoting edge cases are intentionally not
// handled; extraction matches the historical behavior.
var addressPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)

// Fetcher retrieves raw message bytes from the store.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Sender dispatches a serialized message and returns a delivery id.
type Sender interface {
	Send(ctx context.Context, from, to string, raw []byte) (string, error)
}

// Response is the fixed-shape acknowledgment returned on every
// non-fatal outcome. Partial failures are visible in logs only.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Result records the outcome of one dispatch attempt.
type Result struct {
	Recipient string
	Sent      bool
	Err       error
}

// Pipeline wires the forwarding stages together.
type Pipeline struct {
	log        *slog.Logger
	cfg        *config.Config
	normalizer *event.Normalizer
	parser     *mailparse.Parser
	fetcher    Fetcher
	sender     Sender
}

// New creates a Pipeline.
func New(log *slog.Logger, cfg *config.Config, fetcher Fetcher, sender Sender) *Pipeline {
	return &Pipeline{
		log:        log,
		cfg:        cfg,
		normalizer: event.NewNormalizer(log, cfg.Bucket, cfg.KeyPrefix),
		parser:     mailparse.NewParser(log),
		fetcher:    fetcher,
		sender:     sender,
	}
}

// Handle processes one invocation payload. The only fatal outcome is
// a payload that cannot be decoded as a record sequence.
func (p *Pipeline) Handle(ctx context.Context, payload json.RawMessage) (Response, error) {
	tracer := otel.Tracer("mail-forwarder")
	ctx, span := tracer.Start(ctx, "ForwarderHandler")
	defer span.End()

	records, err := event.DecodePayload(payload)
	if err != nil {
		p.log.ErrorContext(ctx, "Malformed trigger payload",
			slog.String("error", err.Error()),
		)
		return Response{}, err
	}

	var results []Result
	for _, r := range p.normalizer.Normalize(records) {
		results = append(results, p.processMessage(ctx, r)...)
	}

	sent, failed := 0, 0
	for _, res := range results {
		if res.Sent {
			sent++
		} else if res.Err != nil {
			failed++
		}
	}
	p.log.InfoContext(ctx, "Forwarding invocation completed",
		slog.Int("attempted", len(results)),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)

	body, _ := json.Marshal(map[string]string{
		"message": "Email forwarding processed successfully",
	})
	return Response{StatusCode: 200, Body: string(body)}, nil
}

// processMessage handles one retrieval descriptor end to end. A
// retrieval or decomposition failure abandons the descriptor; every
// other failure abandons only the affected recipient.
func (p *Pipeline) processMessage(ctx context.Context, r event.Retrieval) []Result {
	raw, err := p.fetcher.Fetch(ctx, r.Bucket, r.Key)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to retrieve message",
			slog.String("bucket", r.Bucket),
			slog.String("key", r.Key),
			slog.String("error", err.Error()),
		)
		return nil
	}

	msg, err := p.parser.Parse(raw)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to decompose message",
			slog.String("key", r.Key),
			slog.String("error", err.Error()),
		)
		return nil
	}

	recipients := r.Recipients
	if len(recipients) == 0 {
		recipients = extractRecipients(msg)
	}
	recipients = dedupe(recipients)
	if len(recipients) == 0 {
		p.log.WarnContext(ctx, "No recipients found in message",
			slog.String("key", r.Key),
		)
		return nil
	}

	var results []Result
	for _, recipient := range recipients {
		results = append(results, p.forwardTo(ctx, msg, recipient))
	}
	return results
}

// forwardTo resolves, composes, and dispatches for one recipient.
func (p *Pipeline) forwardTo(ctx context.Context, msg *mailparse.Message, recipient string) Result {
	dest, ok := p.cfg.Mappings.Resolve(recipient)
	if !ok {
		p.log.WarnContext(ctx, "No forwarding mapping for recipient",
			slog.String("recipient", recipient),
		)
		return Result{Recipient: recipient}
	}

	out := compose.Forward(msg, recipient, dest, p.cfg.SenderAddress())
	raw, err := out.Serialize()
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to serialize outbound message",
			slog.String("recipient", recipient),
			slog.String("error", err.Error()),
		)
		return Result{Recipient: recipient, Err: err}
	}

	id, err := p.sender.Send(ctx, out.From, out.To, raw)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to dispatch forwarded message",
			slog.String("recipient", recipient),
			slog.String("destination", dest),
			slog.String("error", err.Error()),
		)
		return Result{Recipient: recipient, Err: err}
	}

	p.log.InfoContext(ctx, "Forwarded message",
		slog.String("recipient", recipient),
		slog.String("destination", dest),
		slog.String("delivery_id", id),
	)
	return Result{Recipient: recipient, Sent: true}
}

// dedupe drops repeated addresses, comparing normalized forms and
// preserving first-seen order. One dispatch attempt per (message,
// recipient) pair.
func dedupe(recipients []string) []string {
	if len(recipients) < 2 {
		return recipients
	}
	seen := make(map[string]struct{}, len(recipients))
	var out []string
	for _, r := range recipients {
		key := mapping.Normalize(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// extractRecipients derives recipients from message headers when the
// trigger carried none: email-shaped tokens from To then Cc, falling
// back to a trimmed Delivered-To.
func extractRecipients(msg *mailparse.Message) []string {
	var recipients []string
	for _, name := range []string{"To", "Cc"} {
		for _, value := range msg.Header[name] {
			recipients = append(recipients, addressPattern.FindAllString(value, -1)...)
		}
	}
	if len(recipients) == 0 {
		if delivered := strings.TrimSpace(msg.Header.Get("Delivered-To")); delivered != "" {
			recipients = []string{delivered}
		}
	}
	return recipients
}
