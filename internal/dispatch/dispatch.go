// Package dispatch delivers serialized outbound messages via SES v2.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// ErrDispatchRejected indicates the sending service refused the
// message; retrying will not help.
var ErrDispatchRejected = errors.New("dispatch rejected")

// maxRetries is the number of retry attempts for transient failures.
const maxRetries = 2

// baseRetryDelay is the initial delay for exponential backoff.
const baseRetryDelay = 500 * time.Millisecond

// SendEmailAPI is the SES v2 SendEmail operation, extracted for test
// fakes.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Dispatcher sends raw messages through SES v2.
type Dispatcher struct {
	log    *slog.Logger
	client SendEmailAPI
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a Dispatcher.
func New(log *slog.Logger, client SendEmailAPI) *Dispatcher {
	return &Dispatcher{
		log:    log,
		client: client,
		sleep:  sleepWithContext,
	}
}

// Send attempts delivery of one raw message and returns the delivery
// identifier. Transient failures are retried with exponential backoff;
// rejections return ErrDispatchRejected immediately.
func (d *Dispatcher) Send(ctx context.Context, from, to string, raw []byte) (string, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := d.sleep(ctx, backoffDelay(attempt)); err != nil {
				return "", fmt.Errorf("cancelled during retry wait: %w", err)
			}
		}

		out, err := d.client.SendEmail(ctx, input)
		if err == nil {
			return aws.ToString(out.MessageId), nil
		}
		if rejected(err) {
			return "", fmt.Errorf("%w: %s", ErrDispatchRejected, err)
		}

		lastErr = err
		d.log.Warn("Send attempt failed",
			slog.String("to", to),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}

	return "", fmt.Errorf("send failed after %d retries: %w", maxRetries, lastErr)
}

// rejected reports whether the error is a permanent refusal.
func rejected(err error) bool {
	var (
		msgRejected *types.MessageRejected
		suspended   *types.AccountSuspendedException
		paused      *types.SendingPausedException
		mailFromBad *types.MailFromDomainNotVerifiedException
		badRequest  *types.BadRequestException
	)
	switch {
	case errors.As(err, &msgRejected),
		errors.As(err, &suspended),
		errors.As(err, &paused),
		errors.As(err, &mailFromBad),
		errors.As(err, &badRequest):
		return true
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	delay := baseRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
