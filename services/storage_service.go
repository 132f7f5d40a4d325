package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	appConfig "github.com/birthday-song/birthday-song-api/config"
)

// PhotoStorage stores recipient photos used by the video render. The S3
// implementation is the production backend; the mock twin returns static
// asset paths (the video pipeline itself is mocked, so tests and mock mode
// never touch AWS).
type PhotoStorage interface {
	// UploadPhoto stores one photo for an order and returns its URL.
	UploadPhoto(orderID string, fileHeader *multipart.FileHeader) (string, error)
}

var photoStorageInstance PhotoStorage

// InitPhotoStorage initializes the S3-backed photo storage
func InitPhotoStorage() (PhotoStorage, error) {
	cfg := appConfig.GetConfig()

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)

	photoStorageInstance = &S3PhotoStorage{
		client: client,
		bucket: cfg.AWSS3Bucket,
	}
	return photoStorageInstance, nil
}

// GetPhotoStorage returns the initialized photo storage instance
func GetPhotoStorage() PhotoStorage {
	return photoStorageInstance
}

// SetPhotoStorage sets the photo storage instance (primarily for testing)
func SetPhotoStorage(s PhotoStorage) {
	photoStorageInstance = s
}

// S3PhotoStorage stores photos in an S3 bucket under photos/{orderID}/.
type S3PhotoStorage struct {
	client *s3.Client
	bucket string
}

// UploadPhoto uploads the photo to S3 and returns a presigned URL
func (s *S3PhotoStorage) UploadPhoto(orderID string, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warnf("failed to close file: %v", closeErr)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("photos/%s/%d_%s", orderID, time.Now().Unix(), filepath.Base(fileHeader.Filename))

	_, err = s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = 24 * time.Hour
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}
