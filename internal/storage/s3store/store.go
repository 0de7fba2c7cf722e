package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrObjectMissing reports that the requested model blob does not exist,
// so no retrieval link can be produced for it.
var ErrObjectMissing = errors.New("model object not found")

const defaultLinkTTL = time.Hour

// objectAPI is the subset of the S3 client the store uses.
type objectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// getPresigner wraps s3.PresignClient so tests can stub link generation.
type getPresigner interface {
	presignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Store uploads model blobs and issues time-limited retrieval links.
type Store struct {
	client  objectAPI
	presign getPresigner
	bucket  string
	linkTTL time.Duration
}

func New(cfg aws.Config, bucket string) *Store {
	client := s3.NewFromConfig(cfg)
	return &Store{
		client:  client,
		presign: sdkPresigner{pc: s3.NewPresignClient(client), bucket: bucket},
		bucket:  bucket,
		linkTTL: defaultLinkTTL,
	}
}

// Upload stores the blob under key; the key is permanent, links are not.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("upload model %s: %w", key, err)
	}
	return nil
}

// Presign checks the object exists and returns a time-limited GET URL.
// Missing objects yield ErrObjectMissing; callers decide whether that is
// fatal (single get) or skippable (listing).
func (s *Store) Presign(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrObjectMissing
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return "", ErrObjectMissing
		}
		return "", fmt.Errorf("head object %s: %w", key, err)
	}

	url, err := s.presign.presignGet(ctx, key, s.linkTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url, nil
}

type sdkPresigner struct {
	pc     *s3.PresignClient
	bucket string
}

func (p sdkPresigner) presignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := p.pc.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
