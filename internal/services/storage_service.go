// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	minioCreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileTypeInvalid = errors.New("file type not allowed")
)

// ObjectStore is one storage backend.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type StorageService struct {
	store  ObjectStore
	config *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var (
		store ObjectStore
		err   error
	)
	switch cfg.Storage.Driver {
	case "s3":
		store, err = newS3Store(cfg.Storage)
	case "minio":
		store, err = newMinIOStore(cfg.Storage)
	default:
		store, err = newLocalStore(cfg.Storage)
	}
	if err != nil {
		return nil, err
	}
	return NewStorageServiceWithStore(cfg, store), nil
}

func NewStorageServiceWithStore(cfg *config.Config, store ObjectStore) *StorageService {
	return &StorageService{store: store, config: cfg}
}

func (s *StorageService) UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, header.Size, options.MaxSize)
	}

	var r io.Reader = file
	if options.MaxSize > 0 {
		r = io.LimitReader(file, options.MaxSize+1)
	}
	fileBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return s.Upload(ctx, fileBytes, header.Filename, options)
}

// Upload checks size and sniffed content type, then stores the bytes.
func (s *StorageService) Upload(ctx context.Context, data []byte, filename string, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && int64(len(data)) > options.MaxSize {
		return nil, ErrFileTooLarge
	}

	mime := mimetype.Detect(data)
	if len(options.AllowedTypes) > 0 && !mimetype.EqualsAny(mime.String(), options.AllowedTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrFileTypeInvalid, mime.String())
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = mime.Extension()
	}
	key := s.generateFileName(ext, options.Folder)

	if err := s.store.Put(ctx, key, data, mime.String()); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	return &UploadResult{
		URL:      s.store.URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mime.String(),
	}, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// DeleteByURL removes an object previously returned by Upload. URLs from
// other hosts are ignored.
func (s *StorageService) DeleteByURL(ctx context.Context, url string) error {
	prefix := strings.TrimSuffix(s.store.URL(""), "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	return s.store.Delete(ctx, strings.TrimPrefix(url, prefix))
}

func (s *StorageService) GetDefaultUploadOptions(category string) UploadOptions {
	maxSize := int64(s.config.Storage.MaxUploadMB) * 1024 * 1024
	images := []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

	switch category {
	case "products":
		return UploadOptions{Folder: "products", MaxSize: maxSize, AllowedTypes: images}
	case "shops":
		return UploadOptions{Folder: "shops", MaxSize: maxSize, AllowedTypes: images}
	case "avatars":
		return UploadOptions{Folder: "avatars", MaxSize: 2 * 1024 * 1024, AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"}}
	default:
		return UploadOptions{Folder: "general", MaxSize: maxSize, AllowedTypes: append(images, "application/pdf")}
	}
}

func (s *StorageService) generateFileName(ext, folder string) string {
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.NewString()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}
	return filename
}

type s3Store struct {
	client *s3.S3
	cfg    config.StorageConfig
}

func newS3Store(cfg config.StorageConfig) (*s3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &s3Store{client: s3.New(sess), cfg: cfg}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		ACL:           aws.String("public-read"),
	})
	return err
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *s3Store) URL(key string) string {
	if s.cfg.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.cfg.CloudFrontURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3Bucket, s.cfg.AWSRegion, key)
}

type minioStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func newMinIOStore(cfg config.StorageConfig) (*minioStore, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  minioCreds.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":"*","Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, cfg.MinIOBucket)
		if err := client.SetBucketPolicy(ctx, cfg.MinIOBucket, policy); err != nil {
			logrus.WithError(err).Warn("Failed to set MinIO bucket policy")
		}
		logrus.WithField("bucket", cfg.MinIOBucket).Info("Created MinIO bucket")
	}

	return &minioStore{client: client, cfg: cfg}, nil
}

func (m *minioStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.cfg.MinIOBucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioStore) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.cfg.MinIOBucket, key, minio.RemoveObjectOptions{})
}

func (m *minioStore) URL(key string) string {
	scheme := "http"
	if m.cfg.MinIOUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.cfg.MinIOEndpoint, m.cfg.MinIOBucket, key)
}

// localStore writes under LocalPath; the router serves it at /uploads.
type localStore struct {
	root    string
	baseURL string
}

func newLocalStore(cfg config.StorageConfig) (*localStore, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localStore{root: cfg.LocalPath, baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/")}, nil
}

func (l *localStore) path(key string) (string, error) {
	p := filepath.Join(l.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, filepath.Clean(l.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return p, nil
}

func (l *localStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, body, 0o644)
}

func (l *localStore) Delete(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *localStore) URL(key string) string {
	return l.baseURL + "/" + key
}
