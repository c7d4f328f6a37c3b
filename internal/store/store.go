// Package store fetches raw message bytes from the inbound S3 bucket.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrMessageNotFound indicates the requested object does not exist.
var ErrMessageNotFound = errors.New("message not found")

// GetObjectAPI is the subset of the S3 client the store uses.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store retrieves stored messages. It is an opaque fallible fetch:
// callers see bytes, ErrMessageNotFound, or a wrapped transport error.
type Store struct {
	client GetObjectAPI
}

// New creates a Store over an S3 client.
func New(client GetObjectAPI) *Store {
	return &Store{client: client}
}

// Fetch returns the raw bytes of one stored message.
func (s *Store) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrMessageNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}
