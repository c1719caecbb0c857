package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/assembly-floor/internal/usecase/summary"
	"github.com/johnquangdev/assembly-floor/pkg/config"
)

// SnapshotObject returns the object key of a meeting's closing snapshot
func SnapshotObject(meetingID uuid.UUID) string {
	return fmt.Sprintf("meetings/%s/closing-snapshot.json", meetingID)
}

// MinIOArchiver stores closing snapshots in a MinIO bucket
type MinIOArchiver struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchiver creates a MinIO client and makes sure the bucket exists
func NewMinIOArchiver(ctx context.Context, cfg *config.StorageConfig) (*MinIOArchiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	archiver := &MinIOArchiver{client: client, bucket: cfg.BucketName}
	if err := archiver.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return archiver, nil
}

func (m *MinIOArchiver) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive uploads the snapshot as JSON, replacing any earlier one
func (m *MinIOArchiver) Archive(ctx context.Context, snapshot *summary.MeetingSummary) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = m.client.PutObject(ctx, m.bucket, SnapshotObject(snapshot.ID), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return nil
}

// SnapshotURL returns a presigned download URL for a meeting's snapshot
func (m *MinIOArchiver) SnapshotURL(ctx context.Context, meetingID uuid.UUID, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, SnapshotObject(meetingID), expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}
