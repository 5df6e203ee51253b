package upload

import (
	"bytes"
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyEndpoints "github.com/aws/smithy-go/endpoints"
)

type S3Uploader struct {
	s3Client    *s3.Client
	uploader    *manager.Uploader
	bucketName  string
	pathPrefix  string
	maxFileSize int64
}

type ResolverV2 struct{}

func (*ResolverV2) ResolveEndpoint(ctx context.Context, params s3.EndpointParameters) (
	smithyEndpoints.Endpoint, error,
) {
	return s3.NewDefaultEndpointResolverV2().ResolveEndpoint(ctx, params)
}

func NewS3Provider(ctx context.Context, opts *Config) (*S3Uploader, error) {
	creds := credentials.NewStaticCredentialsProvider(opts.S3AccessKey, opts.S3SecretKey, "")
	cfg, err := config.LoadDefaultConfig(ctx, config.WithCredentialsProvider(creds))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.S3EndpointURL)
			o.UsePathStyle = true
		}
		o.Region = opts.S3Region
		o.EndpointResolverV2 = &ResolverV2{}
	})

	return &S3Uploader{
		s3Client:    client,
		uploader:    manager.NewUploader(client),
		bucketName:  opts.S3BucketName,
		pathPrefix:  opts.S3PathPrefix,
		maxFileSize: opts.MaxFileSize,
	}, nil
}

func (u *S3Uploader) put(ctx context.Context, content []byte, objectKey, contentType string) (*manager.UploadOutput, error) {
	return u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(content),
		ACL:         types.ObjectCannedACLPublicRead,
	})
}

func (u *S3Uploader) Upload(ctx context.Context, file *File, subPath string) (*UploadedFileInfo, error) {
	if err := checkFile(file, u.maxFileSize); err != nil {
		return nil, err
	}

	hash := generateHash()
	info := baseInfo(file, S3)

	// decode before uploading anything so a bad image leaves no object behind
	var thumb *thumbnailResult
	if file.IsImage() {
		var err error
		if thumb, err = makeThumbnail(file.Content); err != nil {
			return nil, err
		}
	}

	info.StoragePath = path.Join(u.pathPrefix, subPath, generateFileName(file.Name, hash))
	out, err := u.put(ctx, file.Content, info.StoragePath, file.Mime)
	if err != nil {
		return nil, err
	}
	info.URL = out.Location

	if thumb == nil {
		return info, nil
	}
	info.Width = thumb.width
	info.Height = thumb.height
	info.ThumbnailStoragePath = path.Join(u.pathPrefix, subPath, generateThumbnailName(file.Name, hash))
	thumbOut, err := u.put(ctx, thumb.png, info.ThumbnailStoragePath, "image/png")
	if err != nil {
		_ = u.Remove(ctx, &UploadedFileInfo{StoragePath: info.StoragePath})
		return nil, err
	}
	info.ThumbnailURL = thumbOut.Location
	return info, nil
}

func (u *S3Uploader) Remove(ctx context.Context, fileInfo *UploadedFileInfo) error {
	objectIds := []types.ObjectIdentifier{{Key: aws.String(fileInfo.StoragePath)}}
	if fileInfo.ThumbnailStoragePath != "" {
		objectIds = append(objectIds, types.ObjectIdentifier{Key: aws.String(fileInfo.ThumbnailStoragePath)})
	}
	_, err := u.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(u.bucketName),
		Delete: &types.Delete{Objects: objectIds},
	})
	return err
}
