package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"attendance-api/config"
	"attendance-api/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOService struct {
	client *minio.Client
	bucket string
	urlTTL time.Duration
}

func NewMinIOService(cfg *config.Config) (*MinIOService, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOService{
		client: client,
		bucket: cfg.ImportBucket,
		urlTTL: cfg.PresignedURLTTL,
	}, nil
}

// ListSessions returns the top-level session "folders" of the import bucket
// ("2024-2025" etc).
func (s *MinIOService) ListSessions(ctx context.Context) ([]string, error) {
	var sessions []string

	opts := minio.ListObjectsOptions{
		Prefix:    "",
		Recursive: false,
	}

	for object := range s.client.ListObjects(ctx, s.bucket, opts) {
		if object.Err != nil {
			return nil, object.Err
		}
		if strings.HasSuffix(object.Key, "/") {
			name := strings.TrimSuffix(object.Key, "/")
			if name != "" && !contains(sessions, name) {
				sessions = append(sessions, name)
			}
		}
	}

	return sessions, nil
}

// ListImports returns the import artifacts stored under a session prefix.
func (s *MinIOService) ListImports(ctx context.Context, session string) ([]models.ImportFile, error) {
	var files []models.ImportFile

	opts := minio.ListObjectsOptions{
		Prefix:       session + "/",
		Recursive:    false,
		WithVersions: true,
	}

	for object := range s.client.ListObjects(ctx, s.bucket, opts) {
		if object.Err != nil {
			return nil, object.Err
		}

		if strings.HasSuffix(object.Key, "/") {
			continue
		}

		// Artifacts are serialized ParseResults; anything else in the
		// bucket is not ours to list.
		if !strings.HasSuffix(strings.ToLower(object.Key), ".json") {
			continue
		}

		files = append(files, models.ImportFile{
			Name:         extractFileName(object.Key),
			Path:         object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ETag:         object.ETag,
			Version:      object.VersionID,
		})
	}

	return files, nil
}

// GetPresignedURL generates a presigned download URL for an artifact.
func (s *MinIOService) GetPresignedURL(ctx context.Context, objectPath string) (*models.PresignedURLResponse, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=\"%s\"", extractFileName(objectPath)))

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectPath, s.urlTTL, reqParams)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned url: %w", err)
	}

	return &models.PresignedURLResponse{
		URL:       presignedURL.String(),
		ExpiresAt: time.Now().Add(s.urlTTL),
		FileName:  extractFileName(objectPath),
	}, nil
}

// ObjectExists checks whether an artifact exists.
func (s *MinIOService) ObjectExists(ctx context.Context, objectPath string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DownloadFile reads an artifact back into memory.
func (s *MinIOService) DownloadFile(ctx context.Context, objectPath string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return data, nil
}

// UploadFile stores an artifact in the import bucket.
func (s *MinIOService) UploadFile(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// helpers

func extractFileName(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
