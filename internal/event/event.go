// Package event decodes inbound trigger payloads and normalizes them
// into retrieval descriptors for the forwarding pipeline.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Source tags for retrieval descriptors.
const (
	SourceS3  = "S3"
	SourceSES = "SES"
)

// verdictFail is the receipt verdict status that disqualifies a message.
const verdictFail = "FAIL"

// Record is one trigger record, decoded exactly once at the boundary.
// Exactly one of the variant fields is set for a well-formed record;
// a record with neither is an unknown shape and produces no work.
type Record struct {
	S3  *events.S3Entity           `json:"s3,omitempty"`
	SES *events.SimpleEmailService `json:"ses,omitempty"`
}

// payload is the top-level trigger envelope.
type payload struct {
	Records []Record `json:"Records"`
}

// DecodePayload interprets the raw invocation payload as a sequence of
// trigger records. This is the only fatal parse in the pipeline: a
// payload that cannot be interpreted at all fails the invocation.
func DecodePayload(raw json.RawMessage) ([]Record, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode trigger payload: %w", err)
	}
	return p.Records, nil
}

// Retrieval describes one message to fetch from the store. Recipients
// is populated only on the mail-notification path; the store path
// derives recipients from the retrieved message itself.
type Retrieval struct {
	Bucket     string
	Key        string
	Recipients []string
	Source     string
}
