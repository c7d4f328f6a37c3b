package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	body   []byte
	err    error
	gotKey string
	gotBkt string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotBkt = *params.Bucket
	f.gotKey = *params.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestFetch(t *testing.T) {
	fake := &fakeS3{body: []byte("raw message")}
	s := New(fake)

	data, err := s.Fetch(context.Background(), "mail-bucket", "emails/msg-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != "raw message" {
		t.Errorf("data = %q", data)
	}
	if fake.gotBkt != "mail-bucket" || fake.gotKey != "emails/msg-1" {
		t.Errorf("requested %s/%s", fake.gotBkt, fake.gotKey)
	}
}

func TestFetch_NotFound(t *testing.T) {
	s := New(&fakeS3{err: &types.NoSuchKey{}})

	_, err := s.Fetch(context.Background(), "mail-bucket", "emails/missing")
	if !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("err = %v, want ErrMessageNotFound", err)
	}
}

func TestFetch_TransportError(t *testing.T) {
	s := New(&fakeS3{err: errors.New("connection reset")})

	_, err := s.Fetch(context.Background(), "mail-bucket", "emails/msg-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrMessageNotFound) {
		t.Error("transport error must not map to not-found")
	}
}
