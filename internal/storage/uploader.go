package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ErrInvalidKey is returned for keys that are not already clean or that climb out of the prefix.
var ErrInvalidKey = errors.New("invalid object key")

type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
	Prefix        string
	PublicRead    bool
}

// putObjectAPI is the slice of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes image objects under a fixed prefix. Keys handed to it are
// relative to that prefix, matching what the images table stores.
type Uploader struct {
	cfg    Config
	client putObjectAPI
}

func NewUploader(cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "images"
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return newUploader(cfg, s3.New(options)), nil
}

func newUploader(cfg Config, client putObjectAPI) *Uploader {
	return &Uploader{cfg: cfg, client: client}
}

// Upload stores data at <prefix>/<key> and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no data to upload")
	}
	if err := checkKey(key); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(u.ObjectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if u.cfg.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return u.PublicURL(key), nil
}

// ObjectKey is the full bucket key for a relative image key.
func (u *Uploader) ObjectKey(key string) string {
	return path.Join(strings.Trim(u.cfg.Prefix, "/"), strings.TrimLeft(key, "/"))
}

func checkKey(key string) error {
	rel := strings.TrimLeft(key, "/")
	if rel == "" || path.Clean(rel) != rel || rel == ".." || strings.HasPrefix(rel, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func (u *Uploader) PublicURL(key string) string {
	return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + u.ObjectKey(key)
}

// GeneratedKey builds ai/<username>/<YYYYMMDD_HHMMSS>_<8 hex>.<ext> for a mirrored generation.
func GeneratedKey(username string, now time.Time, contentType string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ai/%s/%s_%s%s", username, now.UTC().Format("20060102_150405"), suffix, ExtensionFromContentType(contentType))
}

// ExtensionFromContentType maps image content types to file extensions, defaulting to .jpg.
func ExtensionFromContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
