package event

import (
	"log/slog"
	"net/url"
	"strings"
)

// Normalizer filters trigger records and turns the eligible ones into
// retrieval descriptors.
type Normalizer struct {
	log           *slog.Logger
	defaultBucket string
	keyPrefix     string
}

// NewNormalizer creates a Normalizer. The default bucket is used for
// mail-notification records and for store records that omit a bucket;
// keyPrefix is the object namespace that holds inbound messages.
func NewNormalizer(log *slog.Logger, defaultBucket, keyPrefix string) *Normalizer {
	return &Normalizer{
		log:           log,
		defaultBucket: defaultBucket,
		keyPrefix:     keyPrefix,
	}
}

// Normalize produces one retrieval descriptor per eligible record,
// preserving input order. Ineligible records are logged and skipped;
// logging is the only side effect.
func (n *Normalizer) Normalize(records []Record) []Retrieval {
	var out []Retrieval
	for _, rec := range records {
		switch {
		case rec.S3 != nil:
			if r, ok := n.fromStore(rec); ok {
				out = append(out, r)
			}
		case rec.SES != nil:
			if r, ok := n.fromMail(rec); ok {
				out = append(out, r)
			}
		default:
			n.log.Warn("Skipping record with unknown shape")
		}
	}
	return out
}

// fromStore handles object-created notifications. The key arrives
// URL-encoded in S3 events.
func (n *Normalizer) fromStore(rec Record) (Retrieval, bool) {
	key := rec.S3.Object.Key
	if decoded, err := url.QueryUnescape(key); err == nil {
		key = decoded
	}

	if key == "" || !strings.HasPrefix(key, n.keyPrefix) {
		n.log.Info("Skipping non-email store object",
			slog.String("key", key),
		)
		return Retrieval{}, false
	}

	bucket := rec.S3.Bucket.Name
	if bucket == "" {
		bucket = n.defaultBucket
	}

	return Retrieval{
		Bucket: bucket,
		Key:    key,
		Source: SourceS3,
	}, true
}

// fromMail handles inbound-mail notifications, which carry recipients
// inline but only imply the object location.
func (n *Normalizer) fromMail(rec Record) (Retrieval, bool) {
	mail := rec.SES.Mail
	receipt := rec.SES.Receipt

	if receipt.SpamVerdict.Status == verdictFail || receipt.VirusVerdict.Status == verdictFail {
		n.log.Warn("Skipping message with failing verdict",
			slog.String("message_id", mail.MessageID),
			slog.String("spam_verdict", receipt.SpamVerdict.Status),
			slog.String("virus_verdict", receipt.VirusVerdict.Status),
		)
		return Retrieval{}, false
	}

	return Retrieval{
		Bucket:     n.defaultBucket,
		Key:        n.keyPrefix + mail.MessageID,
		Recipients: mail.Destination,
		Source:     SourceSES,
	}, true
}
