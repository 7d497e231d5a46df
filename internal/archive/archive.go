// Package archive optionally stores the full, untruncated transcript the
// cleaner formats in C4 step 1 to S3, addressing the open question that
// original_content is persisted as null in the relational row (space
// savings) — the raw transcript still exists for audit/debugging, just
// outside the row. No-op when TRANSCRIPT_ARCHIVE_BUCKET is unset.
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver is satisfied both by a real S3-backed archiver and noopArchiver.
type Archiver interface {
	ArchiveTranscript(ctx context.Context, memoryID uuid.UUID, transcript string) error
}

type s3Archiver struct {
	client *s3.Client
	bucket string
}

// NewArchiver returns an S3-backed archiver when bucket is non-empty,
// otherwise a no-op archiver.
func NewArchiver(ctx context.Context, region, bucket string) (Archiver, error) {
	if bucket == "" {
		return noopArchiver{}, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &s3Archiver{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (a *s3Archiver) ArchiveTranscript(ctx context.Context, memoryID uuid.UUID, transcript string) error {
	key := fmt.Sprintf("transcripts/%s.txt", memoryID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(transcript),
	})
	return err
}

type noopArchiver struct{}

func (noopArchiver) ArchiveTranscript(ctx context.Context, memoryID uuid.UUID, transcript string) error {
	return nil
}
