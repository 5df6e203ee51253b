package upload

import (
	"context"
	"errors"
	"fmt"
)

type Provider string

const (
	Local Provider = "local"
	S3    Provider = "s3"

	DefaultThumbnailWidthInPx  = 128
	DefaultThumbnailHeightInPx = 128
	DefaultMaxFileSize         = 5 << 20
)

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file exceeds the size limit")
	ErrUnsupportedImage = errors.New("file is not a supported image")
)

// Client stores one file and, for images, a thumbnail next to it.
type Client interface {
	Upload(ctx context.Context, file *File, subPath string) (*UploadedFileInfo, error)
	Remove(ctx context.Context, fileInfo *UploadedFileInfo) error
}

type Config struct {
	LocalDir    string
	PublicURL   string
	MaxFileSize int64

	S3AccessKey   string
	S3SecretKey   string
	S3EndpointURL string
	S3BucketName  string
	S3PathPrefix  string
	S3Region      string
}

func New(ctx context.Context, provider Provider, options *Config) (Client, error) {
	if options.MaxFileSize <= 0 {
		options.MaxFileSize = DefaultMaxFileSize
	}
	switch provider {
	case Local:
		return NewLocalUploader(options)
	case S3:
		return NewS3Provider(ctx, options)
	default:
		return nil, fmt.Errorf("unsupported upload provider: %s", provider)
	}
}
