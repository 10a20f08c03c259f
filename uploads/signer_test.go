package uploads

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slotflow/chat-server/apperrors"
	"github.com/slotflow/chat-server/models"
)

type fakeURLCache struct {
	rows map[string]models.SignedURLCache
}

func newFakeURLCache() *fakeURLCache {
	return &fakeURLCache{rows: make(map[string]models.SignedURLCache)}
}

func (c *fakeURLCache) Find(_ context.Context, key string) (*models.SignedURLCache, error) {
	row, ok := c.rows[key]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (c *fakeURLCache) Upsert(_ context.Context, key, url string, expiresAt time.Time) error {
	c.rows[key] = models.SignedURLCache{Key: key, URL: url, ExpiresAt: expiresAt}
	return nil
}

type fakePresigner struct {
	calls int
	err   error
}

func (p *fakePresigner) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return fmt.Sprintf("https://cdn.example.com/%s?sig=%d", key, p.calls), nil
}

const testTTL = 172800 * time.Second

func newTestSigner(cache *fakeURLCache, presigner *fakePresigner) *URLSigner {
	return NewURLSigner(cache, presigner, testTTL, time.Second)
}

func Test_Resolve_HitServesCachedURLWithoutSigning(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cache := newFakeURLCache()
	presigner := &fakePresigner{}
	signer := newTestSigner(cache, presigner)

	first, err := signer.Resolve(ctx, "chat-u1-u2/img.png")
	req.NoError(err)
	second, err := signer.Resolve(ctx, "chat-u1-u2/img.png")
	req.NoError(err)

	req.Equal(first, second)
	req.Equal(1, presigner.calls)
}

func Test_Resolve_ExpiredEntryIsResigned(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cache := newFakeURLCache()
	presigner := &fakePresigner{}
	signer := newTestSigner(cache, presigner)

	now := time.Now()
	signer.now = func() time.Time { return now }

	first, err := signer.Resolve(ctx, "k")
	req.NoError(err)
	req.Equal(1, presigner.calls)
	req.Equal(now.Add(testTTL), cache.rows["k"].ExpiresAt)

	// Just past expiry: a new URL is signed and expiresAt advances.
	later := now.Add(testTTL + time.Second)
	signer.now = func() time.Time { return later }

	second, err := signer.Resolve(ctx, "k")
	req.NoError(err)
	req.Equal(2, presigner.calls)
	req.NotEqual(first, second)
	req.Equal(later.Add(testTTL), cache.rows["k"].ExpiresAt)
}

func Test_Resolve_FailureIsNotCached(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cache := newFakeURLCache()
	presigner := &fakePresigner{err: errors.New("no such key")}
	signer := newTestSigner(cache, presigner)

	_, err := signer.Resolve(ctx, "missing")
	req.ErrorIs(err, apperrors.ErrResolution)
	req.Empty(cache.rows)

	// A later successful signing is served normally.
	presigner.err = nil
	url, err := signer.Resolve(ctx, "missing")
	req.NoError(err)
	req.NotEmpty(url)
}
