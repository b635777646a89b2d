// Package archive exports board snapshots to S3 or any writer.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// ErrNotConfigured is returned when no bucket is set.
var ErrNotConfigured = errors.New("archive: bucket not configured")

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store writes board snapshots to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates a snapshot store. With an empty bucket Export fails with
// ErrNotConfigured.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled reports whether a bucket and client are configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// SnapshotKey is the object key of a snapshot taken at t.
func SnapshotKey(owner string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("snapshots/v%s/%s/%d/%02d/%02d/%s.json",
		SnapshotVersion, owner, t.Year(), t.Month(), t.Day(), t.Format("20060102T150405Z"))
}

// ManifestKey is the object key of the manifest for the month of t.
func ManifestKey(owner string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("snapshots/v%s/%s/manifests/%d-%02d.jsonl", SnapshotVersion, owner, t.Year(), t.Month())
}

// Export uploads a snapshot of list and returns its s3:// location.
func (s *Store) Export(ctx context.Context, owner string, list []*patients.Patient) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	snap := NewSnapshot(owner, list, s.now())
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("archive: marshal snapshot: %w", err)
	}

	key := SnapshotKey(owner, snap.ExportedAt)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}
	s.logger.Info("exported board snapshot", "owner_key", owner, "s3_key", key, "patients", len(snap.Patients))

	entry := ManifestEntry{
		OwnerKey:   owner,
		S3Key:      key,
		Patients:   len(snap.Patients),
		Active:     snap.Counts.Active,
		ExportedAt: snap.ExportedAt.Format(time.RFC3339),
	}
	if err := s.AppendManifest(ctx, entry, snap.ExportedAt); err != nil {
		s.logger.Warn("failed to append manifest", "error", err, "s3_key", key)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// AppendManifest appends a JSONL line to the monthly manifest. S3 has no
// append, so the object is read, extended and written back.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry, at time.Time) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	key := ManifestKey(entry.OwnerKey, at)

	var existing []byte
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", key)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}

// WriteSnapshot writes a snapshot of list to w as indented JSON.
func WriteSnapshot(w io.Writer, owner string, list []*patients.Patient, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewSnapshot(owner, list, now)); err != nil {
		return fmt.Errorf("archive: write snapshot: %w", err)
	}
	return nil
}
