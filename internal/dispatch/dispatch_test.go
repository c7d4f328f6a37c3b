package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type fakeSES struct {
	errs    []error
	calls   int
	lastIn  *sesv2.SendEmailInput
	message string
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.lastIn = params
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String(f.message)}, nil
}

func testDispatcher(client SendEmailAPI) *Dispatcher {
	d := New(slog.New(slog.NewTextHandler(io.Discard, nil)), client)
	d.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return d
}

func TestSend_Success(t *testing.T) {
	fake := &fakeSES{message: "ses-id-1"}
	d := testDispatcher(fake)

	id, err := d.Send(context.Background(), "noreply@biancatechnologies.com", "negascout@gmail.com", []byte("raw"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if id != "ses-id-1" {
		t.Errorf("id = %q", id)
	}
	if got := fake.lastIn.Destination.ToAddresses; len(got) != 1 || got[0] != "negascout@gmail.com" {
		t.Errorf("to = %v", got)
	}
	if aws.ToString(fake.lastIn.FromEmailAddress) != "noreply@biancatechnologies.com" {
		t.Errorf("from = %q", aws.ToString(fake.lastIn.FromEmailAddress))
	}
	if string(fake.lastIn.Content.Raw.Data) != "raw" {
		t.Error("raw content not passed through")
	}
}

func TestSend_RejectedNotRetried(t *testing.T) {
	fake := &fakeSES{errs: []error{&types.MessageRejected{}}}
	d := testDispatcher(fake)

	_, err := d.Send(context.Background(), "from@x", "to@y", []byte("raw"))
	if !errors.Is(err, ErrDispatchRejected) {
		t.Errorf("err = %v, want ErrDispatchRejected", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, rejection must not be retried", fake.calls)
	}
}

func TestSend_TransientRetried(t *testing.T) {
	fake := &fakeSES{errs: []error{errors.New("throttled"), nil}, message: "ses-id-2"}
	d := testDispatcher(fake)

	id, err := d.Send(context.Background(), "from@x", "to@y", []byte("raw"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if id != "ses-id-2" {
		t.Errorf("id = %q", id)
	}
	if fake.calls != 2 {
		t.Errorf("calls = %d, want 2", fake.calls)
	}
}

func TestSend_ExhaustsRetries(t *testing.T) {
	boom := errors.New("still broken")
	fake := &fakeSES{errs: []error{boom, boom, boom}}
	d := testDispatcher(fake)

	_, err := d.Send(context.Background(), "from@x", "to@y", []byte("raw"))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped transient error", err)
	}
	if fake.calls != maxRetries+1 {
		t.Errorf("calls = %d, want %d", fake.calls, maxRetries+1)
	}
}

func TestSend_ContextCancelledDuringRetry(t *testing.T) {
	fake := &fakeSES{errs: []error{errors.New("transient")}}
	d := testDispatcher(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Send(ctx, "from@x", "to@y", []byte("raw"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
}
