// Package uploads moves chat attachments to object storage and resolves
// stored keys to time-limited access URLs through a cache-aside layer.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/slotflow/chat-server/apperrors"
)

// File is the binary payload handed to Upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// objectUploader is satisfied by *manager.Uploader.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Uploader writes attachments to a bucket under generated keys. It never
// retries; retry policy belongs to the caller.
type Uploader struct {
	up      objectUploader
	bucket  string
	timeout time.Duration
	log     *slog.Logger
}

func NewUploader(up objectUploader, bucket string, timeout time.Duration, log *slog.Logger) *Uploader {
	if log == nil {
		log = slog.Default()
	}
	return &Uploader{up: up, bucket: bucket, timeout: timeout, log: log}
}

// Upload stores the file and returns its object key. The key, not a URL, is
// what gets persisted on the message.
func (u *Uploader) Upload(ctx context.Context, namespace, ownerID string, file File) (string, error) {
	body := file.Body
	contentType := file.ContentType
	if contentType == "" {
		// Sniff from the leading bytes, then stitch them back onto the stream.
		head := make([]byte, 3072)
		n, err := io.ReadFull(body, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return "", apperrors.Wrap(apperrors.ErrUpload, "failed to read attachment", err)
		}
		head = head[:n]
		contentType = mimetype.Detect(head).String()
		body = io.MultiReader(bytes.NewReader(head), body)
	}

	key := GenerateKey(namespace, ownerID, file.Name)

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	_, err := u.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUpload, "failed to upload attachment", err)
	}
	u.log.Debug("attachment uploaded", "key", key, "contentType", contentType)
	return key, nil
}
