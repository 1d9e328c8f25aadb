package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/mentorbook/mentorbook-api/pkg/metrics"
	"go.uber.org/zap"
)

// Client is the interface for uploading session recordings
type Client interface {
	UploadRecording(ctx context.Context, data, key, contentType string) (string, error)
	ValidateRecordingType(contentType string) error
	ValidateRecordingSize(data string) error
}

// S3Client uploads session recordings to an S3-compatible object store
type S3Client struct {
	s3Client   *s3.Client
	bucketName string
	endpoint   string
}

// NewS3Client creates a new recordings storage client
func NewS3Client(accessKeyID, secretAccessKey, bucketName, endpoint, region string) (*S3Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}
	if region == "" {
		region = "us-east-1"
	}

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"", // session token not needed
		),
	})

	logger.Info("Recordings storage client initialized",
		zap.String("bucket", bucketName),
		zap.String("endpoint", endpoint),
		zap.String("region", region),
	)

	return &S3Client{
		s3Client:   s3Client,
		bucketName: bucketName,
		endpoint:   endpoint,
	}, nil
}

// UploadRecording uploads a base64-encoded recording and returns its public URL
func (s *S3Client) UploadRecording(ctx context.Context, data, key, contentType string) (string, error) {
	start := time.Now()
	operation := "uploadRecording"

	payload, err := decodeBase64Payload(data)
	if err != nil {
		metrics.StorageRequestDuration.WithLabelValues(operation, "error").Observe(metrics.MeasureDuration(start))
		metrics.StorageRequestTotal.WithLabelValues(operation, "error").Inc()
		return "", fmt.Errorf("failed to decode recording payload: %w", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})

	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.StorageRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		metrics.StorageRequestTotal.WithLabelValues(operation, "error").Inc()
		logger.LogAPICall("storage", operation, "error", duration,
			zap.Error(err),
			zap.String("key", key),
		)
		return "", fmt.Errorf("failed to upload recording: %w", err)
	}

	metrics.StorageRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, "success").Inc()
	logger.LogAPICall("storage", operation, "success", duration,
		zap.String("key", key),
		zap.Int("size_bytes", len(payload)),
	)

	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucketName, key), nil
}

// ValidateRecordingType validates the recording content type
func (s *S3Client) ValidateRecordingType(contentType string) error {
	validTypes := map[string]bool{
		"video/mp4":  true,
		"video/webm": true,
		"audio/mpeg": true,
		"audio/mp4":  true,
	}

	if !validTypes[strings.ToLower(contentType)] {
		return fmt.Errorf("invalid recording type: %s. Allowed types: mp4, webm, mpeg audio", contentType)
	}

	return nil
}

// ValidateRecordingSize validates the recording size (max 500MB)
func (s *S3Client) ValidateRecordingSize(data string) error {
	const maxSize = 500 * 1024 * 1024

	payload, err := decodeBase64Payload(data)
	if err != nil {
		return fmt.Errorf("failed to decode recording for size validation: %w", err)
	}

	if len(payload) > maxSize {
		return fmt.Errorf("recording too large: %d bytes (max %d bytes)", len(payload), maxSize)
	}

	return nil
}

// decodeBase64Payload decodes raw base64 or a data URI (data:video/mp4;base64,...)
func decodeBase64Payload(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		parts := strings.SplitN(data, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid data URI format")
		}
		data = parts[1]
	}
	return base64.StdEncoding.DecodeString(data)
}
