package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/config"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// presignTTL is how long an archived export's download link stays valid.
const presignTTL = 15 * time.Minute

// ExportArchiveService uploads admin CSV exports to an S3-compatible bucket
// (Cloudflare R2) and hands back a presigned download URL.
type ExportArchiveService struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	prefix    string
}

// NewExportArchiveService creates an R2-backed archive service.
func NewExportArchiveService(cfg config.ArchiveConfig) (*ExportArchiveService, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("export archive is not configured")
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	client := s3.New(s3.Options{
		Region:       "auto",
		BaseEndpoint: &endpoint,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})

	return &ExportArchiveService{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// ArchiveCSV uploads the rendered CSV under a timestamped key and returns the
// key, a presigned download URL, and the data row count.
func (s *ExportArchiveService) ArchiveCSV(ctx context.Context, csv string, rows int, now time.Time) (*types.ExportArchiveResponse, error) {
	key := fmt.Sprintf("feedback-export-%s.csv", now.UTC().Format("20060102-150405"))
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	contentType := "text/csv"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        strings.NewReader(csv),
		ContentType: &contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("archive upload failed: %w", err)
	}

	disposition := fmt.Sprintf("attachment; filename=%q", "feedback-export.csv")
	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     &s.bucket,
		Key:                        &key,
		ResponseContentDisposition: &disposition,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return nil, fmt.Errorf("archive presign failed: %w", err)
	}

	return &types.ExportArchiveResponse{
		Key:         key,
		DownloadURL: presigned.URL,
		Rows:        rows,
	}, nil
}
