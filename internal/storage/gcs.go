// Package storage uploads captured frames to GCS when a bucket is
// configured. The rest of the system treats uploads as best effort.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
)

type FrameUploader struct {
	client *gcs.Client
	bucket string
}

// NewFrameUploader returns a nil uploader when no bucket is configured;
// callers check Enabled before uploading.
func NewFrameUploader(ctx context.Context, bucket string) (*FrameUploader, error) {
	if bucket == "" {
		return nil, nil
	}
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &FrameUploader{client: c, bucket: bucket}, nil
}

func (u *FrameUploader) Enabled() bool { return u != nil }

func (u *FrameUploader) Close() error {
	if u == nil {
		return nil
	}
	return u.client.Close()
}

// UploadFrame stores a captured frame under frames/<user>/<ts>.jpg and
// returns its public URL.
func (u *FrameUploader) UploadFrame(ctx context.Context, userID string, frame []byte) (string, error) {
	objectName := fmt.Sprintf("frames/%s/%d.jpg", userID, time.Now().UnixMilli())
	obj := u.client.Bucket(u.bucket).Object(objectName)

	w := obj.NewWriter(ctx)
	w.ContentType = "image/jpeg"

	if _, err := io.Copy(w, bytes.NewReader(frame)); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return "", err
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, objectName), nil
}
