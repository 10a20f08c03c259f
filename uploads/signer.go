package uploads

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/slotflow/chat-server/apperrors"
	"github.com/slotflow/chat-server/models"
)

// Presigner produces a time-limited access URL for an object key.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// urlCache is the slice of storage.SignedURLRepo the signer needs.
type urlCache interface {
	Find(ctx context.Context, key string) (*models.SignedURLCache, error)
	Upsert(ctx context.Context, key, url string, expiresAt time.Time) error
}

// URLSigner resolves object keys to signed URLs cache-aside: cached URLs are
// served while still valid, stale or absent entries trigger one re-signing
// and an upsert. Concurrent resolves of the same key may both re-sign; both
// URLs stay valid for their own TTL, so no locking is needed.
type URLSigner struct {
	cache     urlCache
	presigner Presigner
	ttl       time.Duration
	timeout   time.Duration
	now       func() time.Time
}

func NewURLSigner(cache urlCache, presigner Presigner, ttl, timeout time.Duration) *URLSigner {
	return &URLSigner{
		cache:     cache,
		presigner: presigner,
		ttl:       ttl,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Resolve returns a URL valid strictly beyond now. Signing failures are never
// cached.
func (s *URLSigner) Resolve(ctx context.Context, key string) (string, error) {
	cached, err := s.cache.Find(ctx, key)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrResolution, "cache lookup failed", err)
	}
	now := s.now()
	if cached != nil && cached.ExpiresAt.After(now) {
		return cached.URL, nil
	}

	signCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	url, err := s.presigner.PresignGet(signCtx, key, s.ttl)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrResolution, "failed to presign "+key, err)
	}

	if err := s.cache.Upsert(ctx, key, url, now.Add(s.ttl)); err != nil {
		return "", apperrors.Wrap(apperrors.ErrResolution, "cache upsert failed", err)
	}
	return url, nil
}

// S3Presigner signs GET requests against a bucket.
type S3Presigner struct {
	client *s3.PresignClient
	bucket string
}

func NewS3Presigner(client *s3.PresignClient, bucket string) *S3Presigner {
	return &S3Presigner{client: client, bucket: bucket}
}

func (p *S3Presigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	out, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}
